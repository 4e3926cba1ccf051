package jobs

import (
	"context"
)

// SchedulerAdapter bridges JobInserter to the single-method scheduler
// interface the sync orchestrator and review service depend on, so neither
// needs to import River types.
type SchedulerAdapter struct {
	inserter JobInserter
}

// NewSchedulerAdapter creates a scheduler backed by the given inserter.
func NewSchedulerAdapter(inserter JobInserter) *SchedulerAdapter {
	return &SchedulerAdapter{inserter: inserter}
}

// ScheduleRecompute enqueues an embedding recompute for one professor.
func (a *SchedulerAdapter) ScheduleRecompute(ctx context.Context, professorID int64) error {
	return a.inserter.InsertRecomputeJob(ctx, RecomputeJobArgs{ProfessorID: professorID})
}
