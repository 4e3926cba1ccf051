package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/store"
)

const defaultRecommendLimit = 5

// Keyword lists behind the per-review component signals. Matching is
// case-insensitive substring presence, one hit per keyword per review.
var (
	clarityPositive = []string{
		"clear",
		"organized",
		"easy to understand",
		"understandable",
		"well explained",
	}
	clarityNegative = []string{
		"confusing",
		"unclear",
		"disorganized",
		"hard to understand",
	}
	workloadPositive = []string{
		"light workload",
		"light work",
		"not much work",
		"easy",
		"chill",
	}
	workloadNegative = []string{
		"heavy workload",
		"a lot of work",
		"too much work",
		"tons of work",
		"busywork",
	}
	gradingPositive = []string{
		"fair grader",
		"fair grading",
		"reasonable",
		"transparent",
		"lenient",
		"easy grader",
	}
	gradingNegative = []string{
		"unfair",
		"harsh",
		"strict",
		"hard marker",
		"tough grader",
	}
)

// RecommendService ranks professors by a weighted combination of component
// scores parsed from their review text. Pure read/compute: it never mutates
// persisted state, and the ranking is deterministic for a fixed store state
// and weights (score desc, professor id asc).
type RecommendService struct {
	store    store.SyncStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRecommendService creates a RecommendService.
func NewRecommendService(st store.SyncStore, logger *slog.Logger) *RecommendService {
	if logger == nil {
		logger = slog.Default()
	}

	return &RecommendService{
		store:    st,
		validate: validator.New(),
		logger:   logger,
	}
}

// Recommend scores every professor with at least one review and returns the
// top entries. Weights are arbitrary non-negative scalars, normalized by
// their sum; all-zero weights fall back to the plain average of the three
// components. Professors with zero reviews are excluded: there is no basis
// to score them.
func (s *RecommendService) Recommend(
	ctx context.Context, weights models.RecommendationWeights, limit int,
) ([]models.ScoredResult, error) {
	if err := s.validate.Struct(weights); err != nil {
		return nil, apperrors.NewValidationError("weights", "weights must be non-negative")
	}

	if limit <= 0 {
		limit = defaultRecommendLimit
	}

	professors, err := s.store.ListProfessors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}

	results := make([]models.ScoredResult, 0, len(professors))

	for i := range professors {
		prof := &professors[i]

		reviews, err := s.store.ListReviewsByProfessor(ctx, prof.ID)
		if err != nil {
			return nil, fmt.Errorf("list reviews for professor %d: %w", prof.ID, err)
		}

		if len(reviews) == 0 {
			continue
		}

		breakdown := reviewMetrics(reviews)

		results = append(results, models.ScoredResult{
			ProfessorID: prof.ID,
			Name:        prof.Name,
			Department:  prof.Department,
			Composite:   combineScores(breakdown, weights),
			Breakdown:   breakdown,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Composite != results[j].Composite {
			return results[i].Composite > results[j].Composite
		}

		return results[i].ProfessorID < results[j].ProfessorID
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// reviewMetrics derives the component scores from one professor's reviews.
// Each component starts from a keyword balance (positive hits minus negative
// hits, averaged per review) and is normalized into [0,1] centered at 0.5, so
// strictly more favorable signal never decreases the score.
func reviewMetrics(reviews []models.Review) models.ScoreBreakdown {
	var totalRating, clarityBalance, workloadBalance, gradingBalance float64

	for _, review := range reviews {
		if review.Rating != nil {
			totalRating += float64(*review.Rating)
		}

		lowered := strings.ToLower(review.Text)

		clarityBalance += keywordBalance(lowered, clarityPositive, clarityNegative)
		workloadBalance += keywordBalance(lowered, workloadPositive, workloadNegative)
		gradingBalance += keywordBalance(lowered, gradingPositive, gradingNegative)
	}

	n := float64(len(reviews))

	return models.ScoreBreakdown{
		AvgRating:     totalRating / n,
		ClarityScore:  normalizeComponent(clarityBalance / n),
		WorkloadScore: normalizeComponent(workloadBalance / n),
		GradingScore:  normalizeComponent(gradingBalance / n),
		ReviewCount:   len(reviews),
	}
}

func keywordBalance(lowered string, positive, negative []string) float64 {
	balance := 0.0

	for _, kw := range positive {
		if strings.Contains(lowered, kw) {
			balance++
		}
	}

	for _, kw := range negative {
		if strings.Contains(lowered, kw) {
			balance--
		}
	}

	return balance
}

// normalizeComponent maps a per-review keyword balance into [0,1] centered at
// 0.5, clamping at ±3 so a single keyword-stuffed review can't saturate the
// scale.
func normalizeComponent(component float64) float64 {
	if component == 0 {
		return 0.5
	}

	if component > 3 {
		component = 3
	}

	if component < -3 {
		component = -3
	}

	return 0.5 + component/6
}

// combineScores folds the component scores into one composite in [0,1],
// normalized by the weight sum so (2,0,0) and (4,0,0) rank identically.
func combineScores(b models.ScoreBreakdown, w models.RecommendationWeights) float64 {
	total := w.Clarity + w.Workload + w.Grading
	if total <= 0 {
		return (b.ClarityScore + b.WorkloadScore + b.GradingScore) / 3
	}

	return (b.ClarityScore*w.Clarity + b.WorkloadScore*w.Workload + b.GradingScore*w.Grading) / total
}
