package jobs

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// RiverJobInserter implements JobInserter using the River client.
type RiverJobInserter struct {
	client *river.Client[pgx.Tx]
}

// NewRiverJobInserter creates a new River-based job inserter.
func NewRiverJobInserter(client *river.Client[pgx.Tx]) *RiverJobInserter {
	return &RiverJobInserter{client: client}
}

// uniqueOpts collapses duplicate enqueues for the same args while a prior job
// is still in flight. A sync run that touches a professor twice, or overlaps
// with a manual review post, produces one recompute.
func uniqueOpts() *river.InsertOpts {
	return &river.InsertOpts{
		UniqueOpts: river.UniqueOpts{
			// Only one pending job per professor (by args)
			ByArgs: true,
			// Consider jobs in these states for deduplication
			// Note: JobStatePending is required by River when using ByState
			ByState: []rivertype.JobState{
				rivertype.JobStatePending,
				rivertype.JobStateAvailable,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}

// InsertRecomputeJob enqueues an embedding recompute job with uniqueness constraints.
func (r *RiverJobInserter) InsertRecomputeJob(ctx context.Context, args RecomputeJobArgs) error {
	_, err := r.client.Insert(ctx, args, uniqueOpts())

	return err
}

// InsertSummaryRefreshJob enqueues a summary refresh job with uniqueness constraints.
func (r *RiverJobInserter) InsertSummaryRefreshJob(ctx context.Context, args SummaryRefreshJobArgs) error {
	_, err := r.client.Insert(ctx, args, uniqueOpts())

	return err
}
