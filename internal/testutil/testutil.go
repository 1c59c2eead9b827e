package testutil

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/mindforge/internal/db"
	"github.com/vytor/mindforge/internal/logger"
	"github.com/vytor/mindforge/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The pool is pinned to one connection: every new connection to :memory:
// would otherwise see an empty database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background(), conn, QuietLogger()))
	return conn
}

// QuietLogger drops everything below ERROR.
func QuietLogger() *logger.Logger {
	return logger.New(logger.WithOutput(io.Discard), logger.WithLevel(logger.ERROR), logger.WithColors(false))
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Now is the fixed instant tests schedule against.
var Now = time.Date(2025, time.March, 3, 18, 0, 0, 0, time.UTC)

// NewCard returns a fresh card for owner, due at Now.
func NewCard(ownerID, front string) models.Flashcard {
	return models.NewFlashcard(ownerID, models.FlashcardDraft{Front: front, Back: front + " (answer)"}, Now)
}
