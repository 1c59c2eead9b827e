package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/mindforge/internal/errors"
)

func TestAppError_ErrorString(t *testing.T) {
	err := errors.NewNotFoundError("flashcard", "abc")
	assert.Equal(t, "NOT_FOUND: flashcard not found: abc", err.Error())
	assert.Equal(t, http.StatusNotFound, err.Status)

	cause := stderrors.New("disk full")
	internal := errors.NewInternalError(cause)
	assert.Equal(t, "INTERNAL_ERROR: internal server error (disk full)", internal.Error())
}

func TestAppError_UnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("database is locked")
	err := fmt.Errorf("record review: %w", errors.NewInternalError(cause))

	assert.ErrorIs(t, err, cause)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInternal, appErr.Code)
}

func TestHasCode(t *testing.T) {
	assert.True(t, errors.HasCode(errors.NewInvalidRatingError(nil), errors.ErrCodeInvalidRating))
	assert.False(t, errors.HasCode(errors.NewBadRequestError("nope"), errors.ErrCodeInvalidRating))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrCodeInternal))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *errors.AppError
		status int
	}{
		{errors.NewValidationError("front", "required"), http.StatusBadRequest},
		{errors.NewInvalidRatingError(nil), http.StatusBadRequest},
		{errors.NewUnauthorizedError("missing owner"), http.StatusUnauthorized},
		{errors.NewConflictError("flashcard", "x", nil), http.StatusConflict},
		{errors.NewUnavailableError("db down", nil), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.Status, tt.err.Code)
	}
}
