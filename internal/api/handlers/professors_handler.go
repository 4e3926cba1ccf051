package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/profscope/hub/internal/api/response"
	"github.com/profscope/hub/internal/models"
)

// ProfessorReader provides the professor read operations the handlers need.
type ProfessorReader interface {
	GetProfessor(ctx context.Context, id int64) (*models.Professor, error)
	ListProfessors(ctx context.Context) ([]models.Professor, error)
}

// ProfessorsHandler handles professor read requests.
type ProfessorsHandler struct {
	store ProfessorReader
}

// NewProfessorsHandler creates a new professors handler.
func NewProfessorsHandler(store ProfessorReader) *ProfessorsHandler {
	return &ProfessorsHandler{store: store}
}

// professorID parses the {id} route parameter. Writes a 400 and returns false
// on garbage.
func professorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondBadRequest(w, "invalid professor id")

		return 0, false
	}

	return id, true
}

// Get handles GET /v1/professors/{id}.
func (h *ProfessorsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := professorID(w, r)
	if !ok {
		return
	}

	prof, err := h.store.GetProfessor(r.Context(), id)
	if err != nil {
		response.RespondServiceError(w, err)

		return
	}

	response.RespondSuccess(w, http.StatusOK, prof)
}

// List handles GET /v1/professors.
func (h *ProfessorsHandler) List(w http.ResponseWriter, r *http.Request) {
	professors, err := h.store.ListProfessors(r.Context())
	if err != nil {
		response.RespondServiceError(w, err)

		return
	}

	response.RespondSuccess(w, http.StatusOK, professors)
}
