package handlers

import (
	"context"
	"net/http"

	"github.com/profscope/hub/internal/api/response"
	"github.com/profscope/hub/internal/api/validation"
	"github.com/profscope/hub/internal/models"
)

// ReviewService defines the interface for single-review ingestion.
type ReviewService interface {
	Create(ctx context.Context, req *models.UpsertReviewRequest) (*models.Review, error)
}

// ReviewsHandler handles review creation requests.
type ReviewsHandler struct {
	service ReviewService
}

// NewReviewsHandler creates a new reviews handler.
func NewReviewsHandler(service ReviewService) *ReviewsHandler {
	return &ReviewsHandler{service: service}
}

// Create handles POST /v1/reviews. The review is persisted even when the
// downstream embedding recompute cannot be scheduled.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertReviewRequest
	if !validation.DecodeJSON(w, r, &req) {
		return
	}

	if !validation.ValidateStruct(w, &req) {
		return
	}

	review, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.RespondServiceError(w, err)

		return
	}

	response.RespondSuccess(w, http.StatusCreated, review)
}
