package models

import (
	"time"
)

// Summary is the AI-generated digest of a professor's reviews. Absence is a
// valid state: the summarizer may be unconfigured or not yet run.
type Summary struct {
	ProfessorID int64     `json:"professor_id"`
	Pros        []string  `json:"pros"`
	Cons        []string  `json:"cons"`
	Neutral     []string  `json:"neutral"`
	UpdatedAt   time.Time `json:"updated_at"`
}
