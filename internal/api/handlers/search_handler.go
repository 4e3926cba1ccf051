package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/profscope/hub/internal/api/response"
	"github.com/profscope/hub/internal/api/validation"
	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/service"
)

// SearchService defines the interface for semantic professor search.
type SearchService interface {
	Search(ctx context.Context, query string, topK int, department *string) ([]models.ProfessorWithScore, error)
}

// SearchHandler handles semantic search requests.
type SearchHandler struct {
	service SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchRequest is the body for POST /v1/search.
type SearchRequest struct {
	Query      string  `json:"query" validate:"required"`
	TopK       int     `json:"top_k" validate:"omitempty,min=1,max=100"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=64"`
}

// Search handles POST /v1/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !validation.DecodeJSON(w, r, &req) {
		return
	}

	if !validation.ValidateStruct(w, &req) {
		return
	}

	results, err := h.service.Search(r.Context(), req.Query, req.TopK, req.Department)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			response.RespondBadRequest(w, err.Error())

			return
		}

		response.RespondServiceError(w, err)

		return
	}

	response.RespondSuccess(w, http.StatusOK, results)
}
