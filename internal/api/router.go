// Package api assembles the HTTP surface: routes, middleware order, and the
// handler wiring.
package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/profscope/hub/internal/api/handlers"
	"github.com/profscope/hub/internal/api/middleware"
)

// RouterParams holds the handlers the router mounts. Sync may be nil when the
// process has no sources configured (e.g. the API-only deployment); the route
// is then absent.
type RouterParams struct {
	Professors *handlers.ProfessorsHandler
	Search     *handlers.SearchHandler
	Recommend  *handlers.RecommendHandler
	Summary    *handlers.SummaryHandler
	Reviews    *handlers.ReviewsHandler
	Sync       *handlers.SyncHandler

	// MaxBodyBytes caps request body size; 0 disables the limit.
	MaxBodyBytes int64
}

// NewRouter builds the chi router. RequestID runs first so every later log
// line carries the id; Recoverer turns handler panics into 500s.
func NewRouter(p RouterParams) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	r.Use(chimw.Recoverer)
	r.Use(middleware.MaxBody(p.MaxBodyBytes))

	r.Get("/health", handlers.NewHealthHandler().Check)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/professors", p.Professors.List)
		r.Get("/professors/{id}", p.Professors.Get)
		r.Get("/professors/{id}/summary", p.Summary.Get)

		r.Post("/search", p.Search.Search)
		r.Post("/recommendations", p.Recommend.Recommend)
		r.Post("/reviews", p.Reviews.Create)

		if p.Sync != nil {
			r.Post("/sync", p.Sync.Run)
		}
	})

	return r
}
