package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/profscope/hub/internal/apperrors"
)

// SummaryRefresher regenerates one professor's review digest.
type SummaryRefresher interface {
	Refresh(ctx context.Context, professorID int64) error
}

// SummaryWorkerDeps holds the dependencies for the summary refresh worker.
type SummaryWorkerDeps struct {
	Refresher SummaryRefresher
}

// SummaryWorker processes summary refresh jobs.
type SummaryWorker struct {
	river.WorkerDefaults[SummaryRefreshJobArgs]
	deps SummaryWorkerDeps
}

// NewSummaryWorker creates a new summary refresh worker.
func NewSummaryWorker(deps SummaryWorkerDeps) *SummaryWorker {
	return &SummaryWorker{deps: deps}
}

// Work processes a summary refresh job.
func (w *SummaryWorker) Work(ctx context.Context, job *river.Job[SummaryRefreshJobArgs]) error {
	args := job.Args

	if err := w.deps.Refresher.Refresh(ctx, args.ProfessorID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			// Professor deleted or has no reviews yet; nothing to refresh.
			return nil
		case errors.Is(err, apperrors.ErrCapabilityUnavailable):
			slog.Warn("summary capability unavailable, dropping refresh job",
				"job_id", job.ID,
				"professor_id", args.ProfessorID,
				"error", err,
			)

			return nil
		default:
			slog.Error("summary refresh failed",
				"job_id", job.ID,
				"professor_id", args.ProfessorID,
				"error", err,
			)

			return err // River will retry based on configuration
		}
	}

	slog.Info("summary refreshed",
		"job_id", job.ID,
		"professor_id", args.ProfessorID,
	)

	return nil
}
