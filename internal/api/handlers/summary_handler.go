package handlers

import (
	"context"
	"net/http"

	"github.com/profscope/hub/internal/api/response"
	"github.com/profscope/hub/internal/api/validation"
	"github.com/profscope/hub/internal/models"
)

// SummaryService defines the interface for the cached review digest.
type SummaryService interface {
	GetOrRefresh(ctx context.Context, professorID int64, force bool) (*models.Summary, error)
}

// SummaryHandler handles professor summary requests.
type SummaryHandler struct {
	service SummaryService
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(service SummaryService) *SummaryHandler {
	return &SummaryHandler{service: service}
}

// SummaryQuery are the query parameters for GET /v1/professors/{id}/summary.
type SummaryQuery struct {
	// Refresh forces regeneration regardless of freshness.
	Refresh bool `json:"refresh"`
}

// Get handles GET /v1/professors/{id}/summary.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := professorID(w, r)
	if !ok {
		return
	}

	var query SummaryQuery
	if !validation.DecodeQuery(w, r, &query) {
		return
	}

	summary, err := h.service.GetOrRefresh(r.Context(), id, query.Refresh)
	if err != nil {
		response.RespondServiceError(w, err)

		return
	}

	response.RespondSuccess(w, http.StatusOK, summary)
}
