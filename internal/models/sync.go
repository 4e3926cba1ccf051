package models

import (
	"github.com/google/uuid"
)

// SyncMode selects whether a sync run mutates persisted state.
type SyncMode string

// Sync mode constants.
const (
	SyncDryRun SyncMode = "dry_run"
	SyncCommit SyncMode = "commit"
)

// SyncCounts tallies upsert outcomes for one record kind within a run.
type SyncCounts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// SyncSummary is the result of one sync run. A run always completes with a
// summary, even when individual records failed.
type SyncSummary struct {
	RunID      uuid.UUID  `json:"run_id"`
	Mode       SyncMode   `json:"mode"`
	Professors SyncCounts `json:"professors"`
	Reviews    SyncCounts `json:"reviews"`
	// RecomputesScheduled counts professors whose review set changed and for
	// whom an embedding recompute job was enqueued (commit mode only).
	RecomputesScheduled int `json:"recomputes_scheduled"`
	// SourceErrors lists sources whose walk aborted after retries were
	// exhausted. Records applied before the abort are kept.
	SourceErrors []string `json:"source_errors,omitempty"`
}
