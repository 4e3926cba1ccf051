// Package jobs provides River job workers for async processing tasks.
package jobs

// RecomputeJobArgs contains the arguments for an embedding recompute job.
// One job recomputes the full-review-set vector of a single professor;
// duplicate enqueues for the same professor are collapsed by River's
// uniqueness constraints.
type RecomputeJobArgs struct {
	// ProfessorID is the professor whose review set changed.
	ProfessorID int64 `json:"professor_id"`
}

// Kind returns the job type identifier for River
func (RecomputeJobArgs) Kind() string { return "embedding_recompute" }

// SummaryRefreshJobArgs contains the arguments for a background summary
// refresh job.
type SummaryRefreshJobArgs struct {
	ProfessorID int64 `json:"professor_id"`
}

// Kind returns the job type identifier for River
func (SummaryRefreshJobArgs) Kind() string { return "summary_refresh" }
