// Package service implements the pipeline's business operations on top of the
// store port: embedding recompute, semantic search, recommendation scoring,
// summary refresh, and single-review creation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/embeddings"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/observability"
	"github.com/profscope/hub/internal/store"
)

// Recompute statuses reported to metrics.
const (
	recomputeStatusSuccess     = "success"
	recomputeStatusCleared     = "cleared"
	recomputeStatusStaleDrop   = "stale_drop"
	recomputeStatusUnavailable = "unavailable"
	recomputeStatusError       = "error"
)

// RecomputeService rebuilds a professor's semantic vector from its current
// review set. Concurrent recomputes for the same professor are safe: each
// write carries a generation one above the generation it read, and the store
// drops writes whose generation is not strictly higher than the stored one.
type RecomputeService struct {
	store    store.Store
	embedder embeddings.Client
	metrics  observability.RecomputeMetrics
	logger   *slog.Logger
}

// RecomputeServiceParams configures RecomputeService. Metrics and Logger may be nil.
type RecomputeServiceParams struct {
	Store    store.Store
	Embedder embeddings.Client
	Metrics  observability.RecomputeMetrics
	Logger   *slog.Logger
}

// NewRecomputeService creates a RecomputeService.
func NewRecomputeService(p RecomputeServiceParams) *RecomputeService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RecomputeService{
		store:    p.Store,
		embedder: p.Embedder,
		metrics:  p.Metrics,
		logger:   logger,
	}
}

// Recompute rebuilds the vector for one professor. With zero usable reviews
// any stored vector is cleared without calling the embedding capability. A
// stale write (a concurrent recompute already stored a newer generation) is
// dropped silently and is not an error.
func (s *RecomputeService) Recompute(ctx context.Context, professorID int64) error {
	start := time.Now()

	if _, err := s.store.GetProfessor(ctx, professorID); err != nil {
		//nolint:wrapcheck // NotFoundError passes through so callers can drop the job
		return err
	}

	reviews, err := s.store.ListReviewsByProfessor(ctx, professorID)
	if err != nil {
		s.record(ctx, recomputeStatusError, start)

		return fmt.Errorf("list reviews: %w", err)
	}

	text := aggregateReviewText(reviews)
	if text == "" {
		if err := s.store.DeleteEmbedding(ctx, professorID); err != nil {
			s.record(ctx, recomputeStatusError, start)

			return fmt.Errorf("clear embedding: %w", err)
		}

		s.logger.InfoContext(ctx, "no reviews to embed, cleared vector", "professor_id", professorID)
		s.record(ctx, recomputeStatusCleared, start)

		return nil
	}

	// Read the stored generation before the embedding call. The guard on
	// write, not a lock held across the call, is what keeps concurrent
	// recomputes correct.
	generation := int64(1)

	current, err := s.store.GetEmbedding(ctx, professorID)

	switch {
	case err == nil:
		generation = current.Generation + 1
	case errors.Is(err, apperrors.ErrNotFound):
		// first vector for this professor
	default:
		s.record(ctx, recomputeStatusError, start)

		return fmt.Errorf("get embedding: %w", err)
	}

	reviewSetAt, err := s.store.LatestReviewTime(ctx, professorID)
	if err != nil {
		s.record(ctx, recomputeStatusError, start)

		return fmt.Errorf("latest review time: %w", err)
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		status := recomputeStatusError
		if errors.Is(err, apperrors.ErrCapabilityUnavailable) {
			status = recomputeStatusUnavailable
		}

		s.record(ctx, status, start)
		s.logger.ErrorContext(ctx, "embedding call failed, keeping prior vector",
			"professor_id", professorID, "error", err)

		return fmt.Errorf("embed review set: %w", err)
	}

	stored, err := s.store.PutEmbedding(ctx, &models.ProfessorEmbedding{
		ProfessorID: professorID,
		Vector:      vector,
		Generation:  generation,
		ReviewSetAt: reviewSetAt,
	})
	if err != nil {
		s.record(ctx, recomputeStatusError, start)

		return fmt.Errorf("store embedding: %w", err)
	}

	if !stored {
		s.logger.InfoContext(ctx, "dropped stale recompute, newer generation already stored",
			"professor_id", professorID, "generation", generation)
		s.record(ctx, recomputeStatusStaleDrop, start)

		return nil
	}

	s.logger.InfoContext(ctx, "embedding recomputed",
		"professor_id", professorID, "generation", generation, "reviews", len(reviews))
	s.record(ctx, recomputeStatusSuccess, start)

	return nil
}

func (s *RecomputeService) record(ctx context.Context, status string, start time.Time) {
	if s.metrics == nil {
		return
	}

	s.metrics.RecordRecompute(ctx, status)
	s.metrics.RecordRecomputeDuration(ctx, time.Since(start), status)
}

// aggregateReviewText joins a professor's reviews into one embedding input.
// Reviews with a rating are prefixed so the numeric signal survives in the
// text; empty reviews are skipped.
func aggregateReviewText(reviews []models.Review) string {
	parts := make([]string, 0, len(reviews))

	for _, review := range reviews {
		text := strings.TrimSpace(review.Text)
		if text == "" {
			continue
		}

		if review.Rating != nil {
			parts = append(parts, fmt.Sprintf("Rating %d: %s", *review.Rating, text))
		} else {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n")
}
