package models

import "time"

// Scheduling defaults for a freshly generated card.
const (
	DefaultEaseFactor      = 250
	DefaultIntervalDays    = 1
	DefaultRepetitionCount = 0
)

type Flashcard struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"owner_id"`
	CollectionID    string     `json:"collection_id,omitempty"`
	Front           string     `json:"front"`
	Back            string     `json:"back"`
	Topic           string     `json:"topic,omitempty"`
	RepetitionCount int        `json:"repetition_count"`
	EaseFactor      int        `json:"ease_factor"`
	IntervalDays    int        `json:"interval_days"`
	LastStudiedAt   *time.Time `json:"last_studied_at"`
	NextDueAt       time.Time  `json:"next_due_at"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsDue reports whether the card should be shown at now. The boundary is inclusive.
func (c Flashcard) IsDue(now time.Time) bool {
	return !c.NextDueAt.After(now)
}

// FlashcardDraft is a generated card before it has been scheduled.
type FlashcardDraft struct {
	Front        string `json:"front" validate:"required,max=4000"`
	Back         string `json:"back" validate:"required,max=4000"`
	Topic        string `json:"topic" validate:"max=200"`
	CollectionID string `json:"collection_id" validate:"max=64"`
}

// NewFlashcard builds a card from a draft with the default schedule, due at now.
func NewFlashcard(ownerID string, d FlashcardDraft, now time.Time) Flashcard {
	return Flashcard{
		OwnerID:         ownerID,
		CollectionID:    d.CollectionID,
		Front:           d.Front,
		Back:            d.Back,
		Topic:           d.Topic,
		RepetitionCount: DefaultRepetitionCount,
		EaseFactor:      DefaultEaseFactor,
		IntervalDays:    DefaultIntervalDays,
		NextDueAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type DueFilter struct {
	OwnerID      string
	CollectionID string
	Topic        string
	Now          time.Time
	Limit        int
	Offset       int
}

type ReviewHistory struct {
	ID          int64     `json:"id"`
	FlashcardID string    `json:"flashcard_id"`
	Quality     int       `json:"quality"`
	TimeSeconds float64   `json:"time_seconds"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}

// ReviewResult is what a review submission returns to the study session.
type ReviewResult struct {
	IntervalDays    int       `json:"interval_days"`
	RepetitionCount int       `json:"repetition_count"`
	EaseFactor      int       `json:"ease_factor"`
	NextDueAt       time.Time `json:"next_due_at"`
	Card            Flashcard `json:"card"`
}

// DueSummary is the header shown above a study queue. DueSoon counts cards
// that become due within the next seven days.
type DueSummary struct {
	DueNow  int `json:"due_now"`
	DueSoon int `json:"due_soon"`
}
