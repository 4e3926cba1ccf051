package models

import (
	"time"
)

// ProfessorEmbedding is the semantic vector for one professor, computed over
// the professor's full review set.
//
// Generation increases by one with every stored recompute. The store rejects
// writes whose generation is not strictly greater than the stored one, so a
// slow recompute that finishes after a newer one can never roll the vector
// back.
type ProfessorEmbedding struct {
	ProfessorID int64     `json:"professor_id"`
	Vector      []float32 `json:"vector"`
	Generation  int64     `json:"generation"`
	ReviewSetAt time.Time `json:"review_set_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
