package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/observability"
	"github.com/profscope/hub/internal/store"
	"github.com/profscope/hub/internal/summarize"
)

// maxSummaryPromptChars caps the review payload sent to the summarizer.
const maxSummaryPromptChars = 12_000

// Summary refresh statuses reported to metrics.
const (
	summaryStatusSuccess     = "success"
	summaryStatusUnavailable = "unavailable"
	summaryStatusError       = "error"
)

// SummaryService maintains the cached pros/cons/neutral digest per professor.
// The cached row is refreshed when a newer review exists, when it has aged
// past the refresh window, or on demand; concurrent refreshes for the same
// professor are coalesced.
type SummaryService struct {
	store         store.Store
	client        summarize.Client
	refreshWindow time.Duration
	group         singleflight.Group
	metrics       observability.RecomputeMetrics
	logger        *slog.Logger

	now func() time.Time
}

// SummaryServiceParams configures SummaryService. Metrics and Logger may be nil.
type SummaryServiceParams struct {
	Store         store.Store
	Client        summarize.Client
	RefreshWindow time.Duration
	Metrics       observability.RecomputeMetrics
	Logger        *slog.Logger
}

// NewSummaryService creates a SummaryService.
func NewSummaryService(p SummaryServiceParams) *SummaryService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SummaryService{
		store:         p.Store,
		client:        p.Client,
		refreshWindow: p.RefreshWindow,
		metrics:       p.Metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// GetOrRefresh returns the professor's digest, regenerating it first when it
// is stale (absent, older than the newest review, or past the refresh window)
// or when force is set. When regeneration fails and a cached digest exists,
// the stale digest is returned and the failure only logged: a degraded
// summarizer must not take reads down with it.
func (s *SummaryService) GetOrRefresh(ctx context.Context, professorID int64, force bool) (*models.Summary, error) {
	if _, err := s.store.GetProfessor(ctx, professorID); err != nil {
		//nolint:wrapcheck // NotFoundError passes through for handler status mapping
		return nil, err
	}

	current, err := s.store.GetSummary(ctx, professorID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get summary: %w", err)
	}

	latest, err := s.store.LatestReviewTime(ctx, professorID)
	if err != nil {
		return nil, fmt.Errorf("latest review time: %w", err)
	}

	if latest.IsZero() {
		// No reviews: nothing to summarize. A digest left over from
		// since-removed reviews is still served.
		if current != nil {
			return current, nil
		}

		return nil, apperrors.NewNotFoundError("summary", fmt.Sprintf("professor %d has no reviews to summarize", professorID))
	}

	if !force && current != nil && !current.UpdatedAt.Before(latest) && s.now().Sub(current.UpdatedAt) < s.refreshWindow {
		return current, nil
	}

	fresh, err := s.refresh(ctx, professorID)
	if err != nil {
		if current != nil {
			s.logger.WarnContext(ctx, "summary refresh failed, serving stale digest",
				"professor_id", professorID, "error", err)

			return current, nil
		}
		//nolint:wrapcheck // refresh already classified the error
		return nil, err
	}

	return fresh, nil
}

// Refresh regenerates the digest unconditionally. Used by the background
// refresh job chained after embedding recomputes.
func (s *SummaryService) Refresh(ctx context.Context, professorID int64) error {
	if _, err := s.store.GetProfessor(ctx, professorID); err != nil {
		//nolint:wrapcheck // NotFoundError passes through so callers can drop the job
		return err
	}

	_, err := s.refresh(ctx, professorID)

	return err
}

// refresh runs one coalesced regeneration for the professor.
func (s *SummaryService) refresh(ctx context.Context, professorID int64) (*models.Summary, error) {
	v, err, _ := s.group.Do(strconv.FormatInt(professorID, 10), func() (any, error) {
		return s.regenerate(ctx, professorID)
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.Summary), nil
}

func (s *SummaryService) regenerate(ctx context.Context, professorID int64) (*models.Summary, error) {
	reviews, err := s.store.ListReviewsByProfessor(ctx, professorID)
	if err != nil {
		s.recordRefresh(ctx, summaryStatusError)

		return nil, fmt.Errorf("list reviews: %w", err)
	}

	payload := formatReviewsForSummary(reviews)
	if payload == "" {
		return nil, apperrors.NewNotFoundError("summary", fmt.Sprintf("professor %d has no usable review text", professorID))
	}

	sections, err := s.client.Summarize(ctx, payload)
	if err != nil {
		status := summaryStatusError
		if errors.Is(err, apperrors.ErrCapabilityUnavailable) {
			status = summaryStatusUnavailable
		}

		s.recordRefresh(ctx, status)

		return nil, fmt.Errorf("summarize reviews: %w", err)
	}

	summary := &models.Summary{
		ProfessorID: professorID,
		Pros:        sections.Pros,
		Cons:        sections.Cons,
		Neutral:     sections.Neutral,
		UpdatedAt:   s.now(),
	}

	if err := s.store.PutSummary(ctx, summary); err != nil {
		s.recordRefresh(ctx, summaryStatusError)

		return nil, fmt.Errorf("store summary: %w", err)
	}

	s.recordRefresh(ctx, summaryStatusSuccess)
	s.logger.InfoContext(ctx, "summary refreshed", "professor_id", professorID, "reviews", len(reviews))

	return summary, nil
}

func (s *SummaryService) recordRefresh(ctx context.Context, status string) {
	if s.metrics != nil {
		s.metrics.RecordSummaryRefresh(ctx, status)
	}
}

// formatReviewsForSummary renders the review set as numbered blocks with
// source/rating/timestamp metadata, truncated to the prompt budget.
func formatReviewsForSummary(reviews []models.Review) string {
	chunks := make([]string, 0, len(reviews))

	for idx, review := range reviews {
		text := strings.TrimSpace(review.Text)
		if text == "" {
			continue
		}

		meta := []string{"source=" + string(review.SourceKind)}
		if review.Rating != nil {
			meta = append(meta, fmt.Sprintf("rating=%d", *review.Rating))
		}

		if review.ReviewedAt != nil {
			meta = append(meta, "timestamp="+review.ReviewedAt.Format(time.RFC3339))
		}

		header := fmt.Sprintf("Review %d (%s)", idx+1, strings.Join(meta, ", "))
		chunks = append(chunks, header+":\n"+text)
	}

	payload := strings.TrimSpace(strings.Join(chunks, "\n\n"))
	if len(payload) > maxSummaryPromptChars {
		payload = payload[:maxSummaryPromptChars]
	}

	return payload
}
