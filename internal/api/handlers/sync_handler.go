package handlers

import (
	"context"
	"net/http"

	"github.com/profscope/hub/internal/api/response"
	"github.com/profscope/hub/internal/api/validation"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/source"
)

// SyncRunner runs one sync pass over the configured sources.
type SyncRunner interface {
	Run(ctx context.Context, scope source.Scope, mode models.SyncMode) (*models.SyncSummary, error)
}

// SyncRunnerFunc adapts a function to SyncRunner.
type SyncRunnerFunc func(ctx context.Context, scope source.Scope, mode models.SyncMode) (*models.SyncSummary, error)

// Run implements SyncRunner.
func (f SyncRunnerFunc) Run(ctx context.Context, scope source.Scope, mode models.SyncMode) (*models.SyncSummary, error) {
	return f(ctx, scope, mode)
}

// SyncHandler triggers sync runs over HTTP.
type SyncHandler struct {
	runner SyncRunner
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(runner SyncRunner) *SyncHandler {
	return &SyncHandler{runner: runner}
}

// SyncRequest is the body for POST /v1/sync. Mode defaults to dry_run so a
// bare trigger can never mutate state by accident. ProfessorName pins the
// review sources to one professor; left empty, they cover every professor
// the catalog walk discovers.
type SyncRequest struct {
	Mode          models.SyncMode `json:"mode" validate:"omitempty,oneof=dry_run commit"`
	Department    string          `json:"department,omitempty" validate:"omitempty,max=64"`
	ProfessorName string          `json:"professor_name,omitempty" validate:"omitempty,max=128"`
	RecentTerms   int             `json:"recent_terms,omitempty" validate:"omitempty,min=1,max=12"`
	MaxCourses    int             `json:"max_courses,omitempty" validate:"omitempty,min=1"`
	MaxItems      int             `json:"max_items,omitempty" validate:"omitempty,min=1"`
}

// Run handles POST /v1/sync.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if !validation.DecodeJSON(w, r, &req) {
		return
	}

	if !validation.ValidateStruct(w, &req) {
		return
	}

	if req.Mode == "" {
		req.Mode = models.SyncDryRun
	}

	scope := source.Scope{
		Department:    req.Department,
		ProfessorName: req.ProfessorName,
		RecentTerms:   req.RecentTerms,
		MaxCourses:    req.MaxCourses,
		MaxItems:      req.MaxItems,
	}

	summary, err := h.runner.Run(r.Context(), scope, req.Mode)
	if err != nil {
		response.RespondServiceError(w, err)

		return
	}

	response.RespondSuccess(w, http.StatusOK, summary)
}
