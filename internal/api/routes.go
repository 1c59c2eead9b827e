package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/mindforge/internal/errors"
	"github.com/vytor/mindforge/internal/services"
)

func (s *Server) Routes() http.Handler {
	if s.Validate == nil {
		s.Validate = services.NewValidator()
	}

	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/flashcards", func(r chi.Router) {
		if s.RequestTimeout > 0 {
			r.Use(timeoutMiddleware(s.RequestTimeout))
		}
		r.Use(ownerMiddleware)

		r.Post("/", s.handleCreateFlashcards)
		r.Post("/import", s.handleImportFlashcards)
		r.Get("/due", s.handleDueFlashcards)
		r.Get("/summary", s.handleDueSummary)
		r.Get("/{id}", s.handleGetFlashcard)
		r.Delete("/{id}", s.handleDeleteFlashcard)
		r.Post("/{id}/review", s.handleReviewFlashcard)
		r.Get("/{id}/history", s.handleReviewHistory)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errors.NewNotFoundError("route", r.URL.Path))
	})
	return r
}
