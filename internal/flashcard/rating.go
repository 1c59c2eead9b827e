package flashcard

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRating is returned for quality ratings outside the closed range [0, 5]
	// or that are not integers.
	ErrInvalidRating = errors.New("flashcard: invalid rating")
	// ErrInvalidState is returned when stored scheduling fields break their invariants.
	ErrInvalidState = errors.New("flashcard: invalid scheduling state")
)

// Rating is a 0-5 self-assessment of recall submitted after revealing a card.
type Rating int

const (
	Blackout  Rating = iota // complete failure to recall
	Wrong                   // wrong, but the answer was recognized
	Familiar                // wrong, but the answer felt familiar
	Difficult               // recalled with serious difficulty
	Hesitant                // recalled after some hesitation
	Perfect                 // effortless recall
)

// PassingRating is the lowest rating that counts as a successful recall.
const PassingRating = Difficult

var ratingNames = [...]string{
	Blackout:  "blackout",
	Wrong:     "wrong",
	Familiar:  "familiar",
	Difficult: "difficult",
	Hesitant:  "hesitant",
	Perfect:   "perfect",
}

func (r Rating) IsValid() bool {
	return r >= Blackout && r <= Perfect
}

// Passed reports whether r keeps the repetition streak alive.
func (r Rating) Passed() bool {
	return r >= PassingRating
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating validates a quality rating before any scheduling work happens.
func ParseRating(q int) (Rating, error) {
	r := Rating(q)
	if !r.IsValid() {
		return 0, fmt.Errorf("%w: %d is outside [0, 5]", ErrInvalidRating, q)
	}
	return r, nil
}

// ParseRatingString parses a rating from a JSON-style number ("0" through "5").
// Integral decimals such as "3.0" are accepted; fractions like "2.5", NaN,
// infinities and surrounding text are rejected.
func ParseRatingString(s string) (Rating, error) {
	s = strings.TrimSpace(s)
	if q, err := strconv.Atoi(s); err == nil {
		return ParseRating(q)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidRating, s)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s is outside [0, 5]", ErrInvalidRating, s)
	}
	return ParseRating(int(f))
}
