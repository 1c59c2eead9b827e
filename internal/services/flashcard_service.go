package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/mindforge/internal/errors"
	"github.com/vytor/mindforge/internal/flashcard"
	"github.com/vytor/mindforge/internal/logger"
	"github.com/vytor/mindforge/internal/models"
	"github.com/vytor/mindforge/internal/repository"
)

// dueSoonWindow is how far ahead DueSummary looks for upcoming cards.
const dueSoonWindow = 7 * 24 * time.Hour

// DueQuery narrows a due listing to one collection or topic and pages through it.
type DueQuery struct {
	CollectionID string
	Topic        string
	Limit        int
	Offset       int
}

// FlashcardService handles flashcard-related business logic
type FlashcardService interface {
	RecordReview(ctx context.Context, ownerID, cardID string, quality int, timeSeconds float64, now time.Time) (*models.ReviewResult, error)
	ListDueCards(ctx context.Context, ownerID string, now time.Time, q DueQuery) ([]models.Flashcard, error)
	CountDueCards(ctx context.Context, ownerID string, now time.Time, q DueQuery) (int, error)
	CreateCards(ctx context.Context, ownerID string, drafts []models.FlashcardDraft, now time.Time) ([]string, error)
	GetCard(ctx context.Context, ownerID, cardID string) (*models.Flashcard, error)
	DeleteCard(ctx context.Context, ownerID, cardID string) error
	ReviewHistory(ctx context.Context, ownerID, cardID string) ([]models.ReviewHistory, error)
	DueSummary(ctx context.Context, ownerID string, now time.Time) (*models.DueSummary, error)
}

type flashcardService struct {
	repo     repository.FlashcardRepository
	validate *validator.Validate
}

// NewFlashcardService creates a new FlashcardService
func NewFlashcardService(repo repository.FlashcardRepository) FlashcardService {
	return &flashcardService{repo: repo, validate: NewValidator()}
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func (s *flashcardService) RecordReview(ctx context.Context, ownerID, cardID string, quality int, timeSeconds float64, now time.Time) (*models.ReviewResult, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{"card_id": cardID, "owner_id": ownerID})
	log.Debug("recording review: quality=%d, time_seconds=%.1f", quality, timeSeconds)

	rating, err := flashcard.ParseRating(quality)
	if err != nil {
		log.Debug("rejected rating: %v", err)
		return nil, errors.NewInvalidRatingError(err)
	}
	if timeSeconds < 0 {
		return nil, errors.NewValidationError("time_seconds", "must not be negative")
	}

	result, err := s.attemptReview(ctx, ownerID, cardID, rating, timeSeconds, now)
	if stderrors.Is(err, repository.ErrConflict) {
		log.Info("concurrent review detected, retrying with fresh state")
		result, err = s.attemptReview(ctx, ownerID, cardID, rating, timeSeconds, now)
		if stderrors.Is(err, repository.ErrConflict) {
			log.Warn("review still conflicting after retry")
			return nil, errors.NewConflictError("flashcard", cardID, err)
		}
	}
	if err != nil {
		return nil, reviewError(cardID, err)
	}

	log.Info("review recorded: rating=%s, interval=%d, ease=%d, repetition=%d",
		rating, result.IntervalDays, result.EaseFactor, result.RepetitionCount)
	return result, nil
}

// attemptReview runs one read, compute, compare-and-swap cycle.
func (s *flashcardService) attemptReview(ctx context.Context, ownerID, cardID string, rating flashcard.Rating, timeSeconds float64, now time.Time) (*models.ReviewResult, error) {
	card, err := s.repo.Get(ctx, cardID, ownerID)
	if err != nil {
		return nil, err
	}

	updated, err := flashcard.ApplyReview(*card, rating, now)
	if err != nil {
		return nil, err
	}

	history := &models.ReviewHistory{
		FlashcardID: card.ID,
		Quality:     int(rating),
		TimeSeconds: timeSeconds,
		ReviewedAt:  now,
	}
	if err := s.repo.UpdateSchedule(ctx, updated, card.Version, history); err != nil {
		return nil, err
	}
	updated.Version = card.Version + 1

	return &models.ReviewResult{
		IntervalDays:    updated.IntervalDays,
		RepetitionCount: updated.RepetitionCount,
		EaseFactor:      updated.EaseFactor,
		NextDueAt:       updated.NextDueAt,
		Card:            updated,
	}, nil
}

func reviewError(cardID string, err error) error {
	switch {
	case stderrors.Is(err, repository.ErrCardNotFound):
		return errors.NewNotFoundError("flashcard", cardID)
	case stderrors.Is(err, flashcard.ErrInvalidState):
		return errors.NewInternalError(fmt.Errorf("flashcard %s: %w", cardID, err))
	default:
		return errors.NewInternalError(err)
	}
}

func (s *flashcardService) dueFilter(ownerID string, now time.Time, q DueQuery) models.DueFilter {
	return models.DueFilter{
		OwnerID:      ownerID,
		CollectionID: q.CollectionID,
		Topic:        q.Topic,
		Now:          now,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
}

func (s *flashcardService) ListDueCards(ctx context.Context, ownerID string, now time.Time, q DueQuery) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing due cards: owner_id=%s, collection=%s, topic=%s", ownerID, q.CollectionID, q.Topic)

	if q.Limit < 0 || q.Offset < 0 {
		return nil, errors.NewValidationError("limit", "limit and offset must not be negative")
	}

	cards, err := s.repo.ListDue(ctx, s.dueFilter(ownerID, now, q))
	if err != nil {
		log.Error("failed to list due cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *flashcardService) CountDueCards(ctx context.Context, ownerID string, now time.Time, q DueQuery) (int, error) {
	count, err := s.repo.CountDue(ctx, s.dueFilter(ownerID, now, q))
	if err != nil {
		logger.FromContext(ctx).Error("failed to count due cards: %v", err)
		return 0, errors.NewInternalError(err)
	}
	return count, nil
}

func (s *flashcardService) CreateCards(ctx context.Context, ownerID string, drafts []models.FlashcardDraft, now time.Time) ([]string, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating cards: owner_id=%s, count=%d", ownerID, len(drafts))

	if len(drafts) == 0 {
		return nil, errors.NewValidationError("cards", "at least one card is required")
	}

	cards := make([]models.Flashcard, 0, len(drafts))
	for i, d := range drafts {
		if err := s.validate.Struct(d); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("cards[%d]", i), ValidationMessage(err))
		}
		cards = append(cards, models.NewFlashcard(ownerID, d, now))
	}

	ids, err := s.repo.InsertBatch(ctx, cards)
	if err != nil {
		log.Error("failed to insert cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("created %d cards for owner %s", len(ids), ownerID)
	return ids, nil
}

func (s *flashcardService) GetCard(ctx context.Context, ownerID, cardID string) (*models.Flashcard, error) {
	card, err := s.repo.Get(ctx, cardID, ownerID)
	if stderrors.Is(err, repository.ErrCardNotFound) {
		return nil, errors.NewNotFoundError("flashcard", cardID)
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to get card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return card, nil
}

func (s *flashcardService) DeleteCard(ctx context.Context, ownerID, cardID string) error {
	log := logger.FromContext(ctx)
	err := s.repo.Delete(ctx, cardID, ownerID)
	if stderrors.Is(err, repository.ErrCardNotFound) {
		return errors.NewNotFoundError("flashcard", cardID)
	}
	if err != nil {
		log.Error("failed to delete card: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("deleted card %s", cardID)
	return nil
}

func (s *flashcardService) ReviewHistory(ctx context.Context, ownerID, cardID string) ([]models.ReviewHistory, error) {
	// Ownership is checked on the card; history rows carry no owner.
	if _, err := s.GetCard(ctx, ownerID, cardID); err != nil {
		return nil, err
	}
	history, err := s.repo.ReviewHistory(ctx, cardID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load review history: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if history == nil {
		history = []models.ReviewHistory{}
	}
	return history, nil
}

func (s *flashcardService) DueSummary(ctx context.Context, ownerID string, now time.Time) (*models.DueSummary, error) {
	dueNow, err := s.CountDueCards(ctx, ownerID, now, DueQuery{})
	if err != nil {
		return nil, err
	}
	dueWithinWindow, err := s.CountDueCards(ctx, ownerID, now.Add(dueSoonWindow), DueQuery{})
	if err != nil {
		return nil, err
	}
	return &models.DueSummary{DueNow: dueNow, DueSoon: dueWithinWindow - dueNow}, nil
}

// ValidationMessage turns the first validator failure into a short message
// naming the offending field by its JSON path.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
