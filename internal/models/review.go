package models

import (
	"time"
)

// SourceKind identifies which external source a review came from.
// The set is closed; adapters must not invent new kinds.
type SourceKind string

// Source kind constants.
const (
	SourceCatalog    SourceKind = "catalog"
	SourceReviewSite SourceKind = "review_site"
	SourceForum      SourceKind = "forum"
)

// ValidSourceKind reports whether k is one of the known source kinds.
func ValidSourceKind(k SourceKind) bool {
	switch k {
	case SourceCatalog, SourceReviewSite, SourceForum:
		return true
	default:
		return false
	}
}

// Review represents a single review row for a professor.
//
// Exactly one of ExternalID and ContentHash is set: ExternalID when the source
// provides a stable id for the review, ContentHash (sha256 of the normalized
// text) otherwise. Together with SourceKind it forms the natural key the
// upsert deduplicates on.
type Review struct {
	ID          int64      `json:"id"`
	ProfessorID int64      `json:"professor_id"`
	Text        string     `json:"text"`
	SourceKind  SourceKind `json:"source_kind"`
	ExternalID  *string    `json:"external_id,omitempty"`
	ContentHash *string    `json:"content_hash,omitempty"`
	Rating      *int       `json:"rating,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UpsertReviewRequest carries the fields applied by a review upsert.
type UpsertReviewRequest struct {
	ProfessorID int64      `json:"professor_id" validate:"required,min=1"`
	Text        string     `json:"text" validate:"required,min=1"`
	SourceKind  SourceKind `json:"source_kind" validate:"required"`
	ExternalID  *string    `json:"external_id,omitempty"`
	ContentHash *string    `json:"content_hash,omitempty"`
	Rating      *int       `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
}
