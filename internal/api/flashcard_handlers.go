package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/mindforge/internal/errors"
	"github.com/vytor/mindforge/internal/flashcard"
	"github.com/vytor/mindforge/internal/logger"
	"github.com/vytor/mindforge/internal/models"
	"github.com/vytor/mindforge/internal/services"
)

const maxDuePageSize = 500

type createCardsRequest struct {
	Cards []models.FlashcardDraft `json:"cards" validate:"required,min=1,dive"`
}

type createCardsResponse struct {
	IDs []string `json:"ids"`
}

type importCardsResponse struct {
	Queued int `json:"queued"`
}

type dueCardsResponse struct {
	Cards []models.Flashcard `json:"cards"`
	Total int                `json:"total"`
}

// reviewRequest keeps quality as a json.Number so 3.5 is rejected as a
// rating instead of being truncated by the decoder.
type reviewRequest struct {
	Quality     json.Number `json:"quality" validate:"required"`
	TimeSeconds float64     `json:"time_seconds" validate:"gte=0"`
}

func (s *Server) decodeCards(w http.ResponseWriter, r *http.Request) ([]models.FlashcardDraft, error) {
	var req createCardsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	if err := s.Validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("cards", services.ValidationMessage(err))
	}
	if s.MaxImportBatch > 0 && len(req.Cards) > s.MaxImportBatch {
		return nil, errors.NewValidationError("cards", "too many cards in one request")
	}
	return req.Cards, nil
}

func (s *Server) handleCreateFlashcards(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	drafts, err := s.decodeCards(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	ids, err := s.FlashcardService.CreateCards(r.Context(), owner, drafts, s.now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, createCardsResponse{IDs: ids})
}

func (s *Server) handleImportFlashcards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	owner := ownerFromContext(r.Context())

	drafts, err := s.decodeCards(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.JobQueue.EnqueueImport(owner, drafts); err != nil {
		log.Warn("failed to enqueue import: %v", err)
		handleError(w, r, errors.NewUnavailableError("import queue is not accepting work", err))
		return
	}

	log.Info("queued import of %d cards", len(drafts))
	writeJSON(w, r, http.StatusAccepted, importCardsResponse{Queued: len(drafts)})
}

func (s *Server) handleDueFlashcards(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	limit, err := queryInt(r, "limit", s.DuePageSize)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if limit == 0 {
		limit = s.DuePageSize
	}
	limit = min(limit, maxDuePageSize)
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	q := services.DueQuery{
		CollectionID: r.URL.Query().Get("collection"),
		Topic:        r.URL.Query().Get("topic"),
		Limit:        limit,
		Offset:       offset,
	}
	now := s.now()

	cards, err := s.FlashcardService.ListDueCards(r.Context(), owner, now, q)
	if err != nil {
		handleError(w, r, err)
		return
	}
	total, err := s.FlashcardService.CountDueCards(r.Context(), owner, now, q)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dueCardsResponse{Cards: cards, Total: total})
}

func (s *Server) handleDueSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.FlashcardService.DueSummary(r.Context(), ownerFromContext(r.Context()), s.now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handleGetFlashcard(w http.ResponseWriter, r *http.Request) {
	card, err := s.FlashcardService.GetCard(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

func (s *Server) handleDeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	if err := s.FlashcardService.DeleteCard(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReviewFlashcard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Validate.Struct(req); err != nil {
		handleError(w, r, errors.NewValidationError("review", services.ValidationMessage(err)))
		return
	}

	rating, err := flashcard.ParseRatingString(req.Quality.String())
	if err != nil {
		log.Warn("invalid quality value: %s", req.Quality)
		handleError(w, r, errors.NewInvalidRatingError(err))
		return
	}

	log.WithFields(map[string]any{
		"flashcard_id": id,
		"quality":      int(rating),
		"time_seconds": req.TimeSeconds,
	}).Debug("reviewing flashcard")

	result, err := s.FlashcardService.RecordReview(r.Context(), ownerFromContext(r.Context()), id, int(rating), req.TimeSeconds, s.now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleReviewHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.FlashcardService.ReviewHistory(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"reviews": history})
}
