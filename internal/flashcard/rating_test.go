package flashcard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/mindforge/internal/flashcard"
)

func TestParseRating(t *testing.T) {
	for q := 0; q <= 5; q++ {
		r, err := flashcard.ParseRating(q)
		require.NoError(t, err)
		assert.Equal(t, flashcard.Rating(q), r)
	}

	for _, q := range []int{-100, -1, 6, 42} {
		_, err := flashcard.ParseRating(q)
		assert.ErrorIs(t, err, flashcard.ErrInvalidRating, "quality %d", q)
	}
}

func TestParseRating_SameDecisionEveryTime(t *testing.T) {
	for q := -3; q <= 8; q++ {
		_, first := flashcard.ParseRating(q)
		_, second := flashcard.ParseRating(q)
		assert.Equal(t, first == nil, second == nil, "quality %d", q)
	}
}

func TestParseRatingString(t *testing.T) {
	tests := []struct {
		in      string
		want    flashcard.Rating
		wantErr bool
	}{
		{in: "0", want: flashcard.Blackout},
		{in: "3", want: flashcard.Difficult},
		{in: " 5 ", want: flashcard.Perfect},
		{in: "2.5", wantErr: true},
		{in: "3.0", want: flashcard.Difficult},
		{in: "5.00", want: flashcard.Perfect},
		{in: "0e0", want: flashcard.Blackout},
		{in: "4.000001", wantErr: true},
		{in: "6.0", wantErr: true},
		{in: "1e300", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "Inf", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "6", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := flashcard.ParseRatingString(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, flashcard.ErrInvalidRating)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
		})
	}
}

func TestRating_Passed(t *testing.T) {
	assert.False(t, flashcard.Blackout.Passed())
	assert.False(t, flashcard.Familiar.Passed())
	assert.True(t, flashcard.Difficult.Passed())
	assert.True(t, flashcard.Perfect.Passed())
}

func TestRating_String(t *testing.T) {
	assert.Equal(t, "perfect", flashcard.Perfect.String())
	assert.Equal(t, "Rating(9)", flashcard.Rating(9).String())
}
