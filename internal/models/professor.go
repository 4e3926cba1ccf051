package models

import (
	"time"
)

// Professor represents one instructor row. The id is assigned by the store on
// first insert and never changes afterwards.
type Professor struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Department  *string    `json:"department,omitempty"`
	ProfileURL  *string    `json:"profile_url,omitempty"`
	CourseCodes []string   `json:"course_codes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// UpsertProfessorRequest carries the fields applied by a professor upsert.
// Name doubles as the natural key: the catalog source has no stable external
// instructor id, so identity is exact display name.
type UpsertProfessorRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=255"`
	Department  *string  `json:"department,omitempty" validate:"omitempty,max=64"`
	ProfileURL  *string  `json:"profile_url,omitempty" validate:"omitempty,url"`
	CourseCodes []string `json:"course_codes,omitempty"`
}

// ProfessorWithScore is a professor id, similarity score, and display fields
// for one semantic search result.
type ProfessorWithScore struct {
	ProfessorID int64   `json:"professor_id"`
	Name        string  `json:"name"`
	Department  *string `json:"department,omitempty"`
	Score       float64 `json:"score"`
}
