package handlers

import (
	"context"
	"net/http"

	"github.com/profscope/hub/internal/api/response"
	"github.com/profscope/hub/internal/api/validation"
	"github.com/profscope/hub/internal/models"
)

// RecommendService defines the interface for weighted recommendations.
type RecommendService interface {
	Recommend(ctx context.Context, weights models.RecommendationWeights, limit int) ([]models.ScoredResult, error)
}

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	service RecommendService
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(service RecommendService) *RecommendHandler {
	return &RecommendHandler{service: service}
}

// RecommendRequest is the body for POST /v1/recommendations. Weights default
// to zero, which the scorer treats as an even split.
type RecommendRequest struct {
	Weights models.RecommendationWeights `json:"weights"`
	Limit   int                          `json:"limit" validate:"omitempty,min=1,max=50"`
}

// Recommend handles POST /v1/recommendations.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !validation.DecodeJSON(w, r, &req) {
		return
	}

	if !validation.ValidateStruct(w, &req) {
		return
	}

	results, err := h.service.Recommend(r.Context(), req.Weights, req.Limit)
	if err != nil {
		response.RespondServiceError(w, err)

		return
	}

	response.RespondSuccess(w, http.StatusOK, results)
}
