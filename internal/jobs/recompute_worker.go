package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/profscope/hub/internal/apperrors"
)

// Recomputer rebuilds one professor's embedding from the current review set.
// This allows the worker to drive the recompute without knowing the concrete implementation.
type Recomputer interface {
	Recompute(ctx context.Context, professorID int64) error
}

// RecomputeWorkerDeps holds the dependencies for the recompute worker.
type RecomputeWorkerDeps struct {
	Recomputer Recomputer
	// RateLimiter caps embedding provider calls across all concurrent
	// workers; nil disables pacing.
	RateLimiter *rate.Limiter
	// Inserter, when set, chains a summary refresh after each successful
	// recompute so the digest catches up with the new review set.
	Inserter JobInserter
}

// RecomputeWorker processes embedding recompute jobs.
type RecomputeWorker struct {
	river.WorkerDefaults[RecomputeJobArgs]
	deps RecomputeWorkerDeps
}

// NewRecomputeWorker creates a new recompute worker with the given dependencies.
func NewRecomputeWorker(deps RecomputeWorkerDeps) *RecomputeWorker {
	return &RecomputeWorker{deps: deps}
}

// Work processes a recompute job.
func (w *RecomputeWorker) Work(ctx context.Context, job *river.Job[RecomputeJobArgs]) error {
	args := job.Args

	slog.Debug("processing recompute job",
		"job_id", job.ID,
		"professor_id", args.ProfessorID,
	)

	// Wait for rate limit token if configured
	if w.deps.RateLimiter != nil {
		if err := w.deps.RateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	if err := w.deps.Recomputer.Recompute(ctx, args.ProfessorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			slog.Info("professor deleted before recompute job completed",
				"job_id", job.ID,
				"professor_id", args.ProfessorID,
			)
			// Return nil to mark job as complete - professor no longer exists
			return nil
		}

		if errors.Is(err, apperrors.ErrCapabilityUnavailable) {
			slog.Warn("embedding capability unavailable, dropping recompute job",
				"job_id", job.ID,
				"professor_id", args.ProfessorID,
				"error", err,
			)
			// Retrying cannot help until the provider is configured; a
			// backfill run picks this professor up afterwards.
			return nil
		}

		slog.Error("recompute failed",
			"job_id", job.ID,
			"professor_id", args.ProfessorID,
			"error", err,
		)

		return err // River will retry based on configuration
	}

	if w.deps.Inserter != nil {
		refreshArgs := SummaryRefreshJobArgs{ProfessorID: args.ProfessorID}
		if err := w.deps.Inserter.InsertSummaryRefreshJob(ctx, refreshArgs); err != nil {
			slog.Error("failed to chain summary refresh job",
				"job_id", job.ID,
				"professor_id", args.ProfessorID,
				"error", err,
			)
		}
	}

	slog.Info("recompute completed",
		"job_id", job.ID,
		"professor_id", args.ProfessorID,
	)

	return nil
}
