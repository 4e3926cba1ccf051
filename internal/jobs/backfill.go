package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// BackfillSource lists professors whose embedding is missing even though they
// have reviews, e.g. after the embedding capability was configured late or a
// batch of recompute jobs was dropped.
type BackfillSource interface {
	ListProfessorIDsForBackfill(ctx context.Context) ([]int64, error)
}

// BackfillStats holds statistics from a backfill operation.
type BackfillStats struct {
	RecomputesEnqueued int
	Errors             int
}

// Backfill enqueues a recompute job for every professor with reviews but no
// stored embedding. Individual enqueue failures are logged and counted; the
// run keeps going.
func Backfill(ctx context.Context, src BackfillSource, inserter JobInserter) (*BackfillStats, error) {
	ids, err := src.ListProfessorIDsForBackfill(ctx)
	if err != nil {
		return nil, fmt.Errorf("list professors for backfill: %w", err)
	}

	stats := &BackfillStats{}

	for _, id := range ids {
		if err := inserter.InsertRecomputeJob(ctx, RecomputeJobArgs{ProfessorID: id}); err != nil {
			slog.Error("failed to enqueue recompute job", "professor_id", id, "error", err)
			stats.Errors++

			continue
		}

		stats.RecomputesEnqueued++
	}

	return stats, nil
}
