package models

// RecommendationWeights are the per-request preference weights. Arbitrary
// non-negative scalars are accepted; the scorer normalizes by their sum.
type RecommendationWeights struct {
	Clarity  float64 `json:"clarity" validate:"min=0"`
	Workload float64 `json:"workload" validate:"min=0"`
	Grading  float64 `json:"grading" validate:"min=0"`
}

// ScoreBreakdown reports the component scores and inputs behind a composite
// recommendation score. Component scores are in [0,1].
type ScoreBreakdown struct {
	AvgRating     float64 `json:"avg_rating"`
	ClarityScore  float64 `json:"clarity_score"`
	WorkloadScore float64 `json:"workload_score"`
	GradingScore  float64 `json:"grading_score"`
	ReviewCount   int     `json:"review_count"`
}

// ScoredResult is one ranked recommendation entry. Composite is in [0,1].
type ScoredResult struct {
	ProfessorID int64          `json:"professor_id"`
	Name        string         `json:"name"`
	Department  *string        `json:"department,omitempty"`
	Composite   float64        `json:"composite"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
}
