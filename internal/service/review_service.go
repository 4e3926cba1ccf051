package service

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/profscope/hub/internal/apperrors"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/source"
	"github.com/profscope/hub/internal/store"
)

// RecomputeScheduler enqueues an embedding recompute for one professor.
type RecomputeScheduler interface {
	ScheduleRecompute(ctx context.Context, professorID int64) error
}

// ReviewService is the single-record ingestion path. It funnels through the
// same natural-key upsert as the bulk sync, so a review posted directly can
// never duplicate one the sync already ingested.
type ReviewService struct {
	store     store.SyncStore
	scheduler RecomputeScheduler
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewReviewService creates a ReviewService. scheduler may be nil; reviews are
// then persisted without triggering a recompute.
func NewReviewService(st store.SyncStore, scheduler RecomputeScheduler, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewService{
		store:     st,
		scheduler: scheduler,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Create upserts one review and schedules an embedding recompute when the
// review set actually changed. A request without a natural key gets a content
// hash derived from its normalized text. Scheduling failures are logged, not
// returned: ingestion must not be blocked by a degraded embedding dependency.
func (s *ReviewService) Create(ctx context.Context, req *models.UpsertReviewRequest) (*models.Review, error) {
	req.Text = source.NormalizeText(req.Text)

	if req.ExternalID == nil && req.ContentHash == nil {
		key := source.ContentKey(req.SourceKind, req.Text)
		req.ContentHash = &key.ContentHash
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewValidationError("review", err.Error())
	}

	review, outcome, err := s.store.UpsertReview(ctx, req)
	if err != nil {
		//nolint:wrapcheck // store errors carry the classification handlers map on
		return nil, err
	}

	s.logger.InfoContext(ctx, "review ingested",
		"professor_id", review.ProfessorID, "review_id", review.ID, "outcome", outcome.String())

	if s.scheduler != nil && outcome != store.OutcomeUnchanged {
		if err := s.scheduler.ScheduleRecompute(ctx, review.ProfessorID); err != nil {
			s.logger.ErrorContext(ctx, "failed to schedule recompute after review",
				"professor_id", review.ProfessorID, "error", err)
		}
	}

	return review, nil
}
