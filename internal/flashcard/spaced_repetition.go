package flashcard

import (
	"fmt"
	"time"

	"github.com/vytor/mindforge/internal/models"
)

const (
	// MinEaseFactor is the floor for the ×100 ease factor.
	MinEaseFactor = 130

	// MaxIntervalDays caps a single interval at a century. Due dates stay
	// inside four-digit years and interval*ease never overflows.
	MaxIntervalDays = 36500

	firstInterval  = 1
	secondInterval = 6
)

// State is the per-card memory strength the scheduler works on.
type State struct {
	RepetitionCount int
	EaseFactor      int
	IntervalDays    int
}

func DefaultState() State {
	return State{
		RepetitionCount: models.DefaultRepetitionCount,
		EaseFactor:      models.DefaultEaseFactor,
		IntervalDays:    models.DefaultIntervalDays,
	}
}

func (s State) Validate() error {
	switch {
	case s.RepetitionCount < 0:
		return fmt.Errorf("%w: repetition count %d < 0", ErrInvalidState, s.RepetitionCount)
	case s.EaseFactor < MinEaseFactor:
		return fmt.Errorf("%w: ease factor %d < %d", ErrInvalidState, s.EaseFactor, MinEaseFactor)
	case s.IntervalDays < 1:
		return fmt.Errorf("%w: interval %d < 1", ErrInvalidState, s.IntervalDays)
	}
	return nil
}

// Schedule is the outcome of one review.
type Schedule struct {
	State
	NextDueAt time.Time
}

// Next computes the scheduling state that follows a review rated r at now.
//
// A passing rating walks the 1 day, 6 day ramp and then multiplies the previous
// interval by the previous ease factor, rounding half up, never beyond
// MaxIntervalDays. A lapse resets the streak and schedules the card for
// tomorrow. The ease factor moves by
// (8 - 5r) * 10 in both cases and never drops below MinEaseFactor.
//
// Next only fails when its inputs break the contract (an unvalidated rating or
// a state outside its invariants); such errors are programming errors.
func Next(prev State, r Rating, now time.Time) (Schedule, error) {
	if !r.IsValid() {
		return Schedule{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	if err := prev.Validate(); err != nil {
		return Schedule{}, err
	}

	var next State
	if r.Passed() {
		switch prev.RepetitionCount {
		case 0:
			next.IntervalDays = firstInterval
		case 1:
			next.IntervalDays = secondInterval
		default:
			next.IntervalDays = scaleInterval(prev.IntervalDays, prev.EaseFactor)
		}
		next.RepetitionCount = prev.RepetitionCount + 1
	} else {
		next.RepetitionCount = 0
		next.IntervalDays = firstInterval
	}

	next.EaseFactor = prev.EaseFactor + easeDelta(r)
	if next.EaseFactor < MinEaseFactor {
		next.EaseFactor = MinEaseFactor
	}

	return Schedule{
		State:     next,
		NextDueAt: now.AddDate(0, 0, next.IntervalDays),
	}, nil
}

// easeDelta is +80 at a blackout down to -170 at a perfect recall.
func easeDelta(r Rating) int {
	return (8 - 5*int(r)) * 10
}

// scaleInterval returns round-half-up(interval * ease / 100) without floats,
// saturating at MaxIntervalDays. ease is at least MinEaseFactor.
func scaleInterval(interval, ease int) int {
	if interval > MaxIntervalDays*100/ease {
		return MaxIntervalDays
	}
	return min((interval*ease+50)/100, MaxIntervalDays)
}

// StateOf reads the scheduling state of a stored card. Rows written before the
// scheduling columns had defaults carry zeroes; those read as a fresh card.
func StateOf(card models.Flashcard) State {
	s := State{
		RepetitionCount: card.RepetitionCount,
		EaseFactor:      card.EaseFactor,
		IntervalDays:    card.IntervalDays,
	}
	if s.EaseFactor == 0 {
		s.EaseFactor = models.DefaultEaseFactor
	}
	if s.IntervalDays == 0 {
		s.IntervalDays = models.DefaultIntervalDays
	}
	return s
}

// ApplyReview schedules card after a review rated r at now and records now as
// the time it was last studied.
func ApplyReview(card models.Flashcard, r Rating, now time.Time) (models.Flashcard, error) {
	sched, err := Next(StateOf(card), r, now)
	if err != nil {
		return card, err
	}

	studied := now
	card.RepetitionCount = sched.RepetitionCount
	card.EaseFactor = sched.EaseFactor
	card.IntervalDays = sched.IntervalDays
	card.NextDueAt = sched.NextDueAt
	card.LastStudiedAt = &studied
	card.UpdatedAt = now
	return card, nil
}
