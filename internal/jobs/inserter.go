package jobs

import (
	"context"
)

// JobInserter is an interface for inserting jobs into the queue.
// This allows services to enqueue jobs without knowing about River directly.
type JobInserter interface {
	// InsertRecomputeJob enqueues an embedding recompute job.
	// Returns an error if the job could not be inserted.
	InsertRecomputeJob(ctx context.Context, args RecomputeJobArgs) error

	// InsertSummaryRefreshJob enqueues a background summary refresh job.
	InsertSummaryRefreshJob(ctx context.Context, args SummaryRefreshJobArgs) error
}
