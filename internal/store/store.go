// Package store defines the persistence port the pipeline components share:
// natural-key upserts for professors and reviews, generation-guarded embedding
// writes, and summary read/write. The Postgres implementation lives in
// internal/repository; Memory implements the same contract in-process and
// Staging overlays any SyncStore so dry-run sync can evaluate the exact same
// upsert path without touching persisted state.
package store

import (
	"context"
	"time"

	"github.com/profscope/hub/internal/models"
)

// Outcome classifies what a natural-key upsert did. Dry-run and commit runs
// over the same input and starting state must produce the same outcomes;
// that's the property the staging overlay exists to preserve.
type Outcome int

// Upsert outcomes.
const (
	// OutcomeAdded means no row existed for the natural key.
	OutcomeAdded Outcome = iota
	// OutcomeUpdated means a row existed and at least one field changed.
	OutcomeUpdated
	// OutcomeUnchanged means a row existed and the upsert was a no-op.
	OutcomeUnchanged
)

// String renders the outcome for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// ProfessorStore is the professor side of the persistence port. Professor
// identity is the display name: the catalog has no stable instructor id.
type ProfessorStore interface {
	// UpsertProfessor inserts or merges by name. Merge preserves the
	// existing created_at and unions course codes in order; other fields
	// are overwritten when the request provides them.
	UpsertProfessor(ctx context.Context, req *models.UpsertProfessorRequest) (*models.Professor, Outcome, error)
	// GetProfessor returns apperrors.NotFoundError when absent.
	GetProfessor(ctx context.Context, id int64) (*models.Professor, error)
	// GetProfessorByName returns apperrors.NotFoundError when absent.
	GetProfessorByName(ctx context.Context, name string) (*models.Professor, error)
	// ListProfessors returns all professors ordered by id.
	ListProfessors(ctx context.Context) ([]models.Professor, error)
}

// ReviewStore is the review side of the persistence port.
type ReviewStore interface {
	// UpsertReview inserts or replaces by natural key (source kind plus
	// external id or content hash, exactly one set on the request). An
	// existing row keeps its id and created_at; all other fields are
	// overwritten. Never duplicates.
	UpsertReview(ctx context.Context, req *models.UpsertReviewRequest) (*models.Review, Outcome, error)
	// GetReviewByKey looks a review up by natural key. Exactly one of
	// externalID and contentHash is non-nil. Returns
	// apperrors.NotFoundError when absent.
	GetReviewByKey(ctx context.Context, kind models.SourceKind, externalID, contentHash *string) (*models.Review, error)
	// ListReviewsByProfessor returns the professor's reviews ordered by id.
	ListReviewsByProfessor(ctx context.Context, professorID int64) ([]models.Review, error)
	// LatestReviewTime returns the created_at of the professor's newest
	// review, or the zero time when the professor has none.
	LatestReviewTime(ctx context.Context, professorID int64) (time.Time, error)
}

// EmbeddingStore is the derived-vector side of the persistence port.
type EmbeddingStore interface {
	// GetEmbedding returns apperrors.NotFoundError when the professor has
	// no stored vector.
	GetEmbedding(ctx context.Context, professorID int64) (*models.ProfessorEmbedding, error)
	// PutEmbedding stores the vector iff emb.Generation is strictly greater
	// than the stored generation. Returns false when the write was dropped
	// as stale. This guard is what makes concurrent recomputes safe without
	// a lock held across the embedding call.
	PutEmbedding(ctx context.Context, emb *models.ProfessorEmbedding) (bool, error)
	// DeleteEmbedding clears the professor's vector. Deleting an absent
	// vector is a no-op.
	DeleteEmbedding(ctx context.Context, professorID int64) error
	// NearestProfessors ranks professors with stored vectors by cosine
	// score against queryVec: score desc, professor id asc, capped at
	// limit, optionally restricted to a department, dropping scores below
	// minScore. Professors without vectors are absent, not zero-scored.
	NearestProfessors(ctx context.Context, queryVec []float32, limit int, department *string, minScore float64) ([]models.ProfessorWithScore, error)
}

// SummaryStore is the digest side of the persistence port.
type SummaryStore interface {
	// GetSummary returns apperrors.NotFoundError when no summary exists;
	// absence is a valid state for callers.
	GetSummary(ctx context.Context, professorID int64) (*models.Summary, error)
	// PutSummary inserts or replaces the professor's summary.
	PutSummary(ctx context.Context, summary *models.Summary) error
}

// SyncStore is the slice of the port the sync orchestrator writes through.
type SyncStore interface {
	ProfessorStore
	ReviewStore
}

// Store is the full persistence port.
type Store interface {
	ProfessorStore
	ReviewStore
	EmbeddingStore
	SummaryStore
}
