package repository

import (
	"context"
	"errors"

	"github.com/vytor/mindforge/internal/models"
)

var (
	// ErrCardNotFound means the id is unknown or belongs to another owner.
	ErrCardNotFound = errors.New("flashcard not found")
	// ErrConflict means the card changed between read and write.
	ErrConflict = errors.New("flashcard version conflict")
)

// FlashcardRepository handles flashcard data access
type FlashcardRepository interface {
	Insert(ctx context.Context, card models.Flashcard) (string, error)
	InsertBatch(ctx context.Context, cards []models.Flashcard) ([]string, error)
	Get(ctx context.Context, id, ownerID string) (*models.Flashcard, error)
	ListDue(ctx context.Context, filter models.DueFilter) ([]models.Flashcard, error)
	CountDue(ctx context.Context, filter models.DueFilter) (int, error)
	// UpdateSchedule writes the scheduling fields of card if its stored version
	// still equals expectedVersion, and appends history in the same transaction.
	// It returns ErrConflict when the version moved on.
	UpdateSchedule(ctx context.Context, card models.Flashcard, expectedVersion int64, history *models.ReviewHistory) error
	Delete(ctx context.Context, id, ownerID string) error
	ReviewHistory(ctx context.Context, flashcardID string) ([]models.ReviewHistory, error)
}
