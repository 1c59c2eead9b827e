package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/vytor/mindforge/internal/logger"
	"github.com/vytor/mindforge/internal/models"
	"github.com/vytor/mindforge/internal/repository"
)

var flashcardColumns = []string{
	"id", "owner_id", "collection_id", "front", "back", "topic",
	"repetition_count", "ease_factor", "interval_days",
	"last_studied_at", "next_due_at", "version", "created_at", "updated_at",
}

const insertFlashcardSQL = `
INSERT INTO flashcards (id, owner_id, collection_id, front, back, topic, repetition_count, ease_factor, interval_days, last_studied_at, next_due_at, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type flashcardRepository struct {
	db *sql.DB
}

// NewFlashcardRepository creates a new FlashcardRepository implementation
func NewFlashcardRepository(db *sql.DB) repository.FlashcardRepository {
	return &flashcardRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row rowScanner) (models.Flashcard, error) {
	var (
		c                   models.Flashcard
		collectionID, topic sql.NullString
		rep, ease, interval sql.NullInt64
		lastStudied         sql.NullTime
	)
	err := row.Scan(&c.ID, &c.OwnerID, &collectionID, &c.Front, &c.Back, &topic,
		&rep, &ease, &interval, &lastStudied, &c.NextDueAt, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.CollectionID = collectionID.String
	c.Topic = topic.String
	// NULL scheduling columns stay zero; the scheduler reads zero as the default.
	c.RepetitionCount = int(rep.Int64)
	c.EaseFactor = int(ease.Int64)
	c.IntervalDays = int(interval.Int64)
	if lastStudied.Valid {
		t := lastStudied.Time
		c.LastStudiedAt = &t
	}
	return c, nil
}

func prepareInsert(c models.Flashcard) (models.Flashcard, []any) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	return c, []any{
		c.ID, c.OwnerID, nullString(c.CollectionID), c.Front, c.Back, nullString(c.Topic),
		c.RepetitionCount, c.EaseFactor, c.IntervalDays,
		nullTime(c.LastStudiedAt), c.NextDueAt.UTC(), c.Version, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	}
}

func (r *flashcardRepository) Insert(ctx context.Context, c models.Flashcard) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")

	c, args := prepareInsert(c)
	log.Debug("inserting flashcard: id=%s, owner_id=%s", c.ID, c.OwnerID)

	if _, err := r.db.ExecContext(ctx, insertFlashcardSQL, args...); err != nil {
		log.Error("failed to insert flashcard: %v", err)
		return "", err
	}
	log.Debug("flashcard inserted: id=%s", c.ID)
	return c.ID, nil
}

func (r *flashcardRepository) InsertBatch(ctx context.Context, cards []models.Flashcard) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("inserting flashcard batch: count=%d", len(cards))

	ids := make([]string, 0, len(cards))
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertFlashcardSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range cards {
			c, args := prepareInsert(c)
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert flashcard %s: %w", c.ID, err)
			}
			ids = append(ids, c.ID)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to insert flashcard batch: %v", err)
		return nil, err
	}
	log.Debug("flashcard batch inserted: count=%d", len(ids))
	return ids, nil
}

func (r *flashcardRepository) Get(ctx context.Context, id, ownerID string) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("getting flashcard: id=%s, owner_id=%s", id, ownerID)

	query, args, err := sqlBuilder.Select(flashcardColumns...).
		From("flashcards").
		Where(squirrel.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	c, err := scanFlashcard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("flashcard not found: id=%s", id)
		return nil, repository.ErrCardNotFound
	}
	if err != nil {
		log.Error("failed to get flashcard: %v", err)
		return nil, err
	}
	return &c, nil
}

func dueConditions(f models.DueFilter) squirrel.And {
	cond := squirrel.And{
		squirrel.Eq{"owner_id": f.OwnerID},
		squirrel.LtOrEq{"next_due_at": f.Now.UTC()},
	}
	if f.CollectionID != "" {
		cond = append(cond, squirrel.Eq{"collection_id": f.CollectionID})
	}
	if f.Topic != "" {
		cond = append(cond, squirrel.Eq{"topic": f.Topic})
	}
	return cond
}

func (r *flashcardRepository) ListDue(ctx context.Context, f models.DueFilter) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("listing due flashcards: owner_id=%s, collection=%s, topic=%s, limit=%d, offset=%d",
		f.OwnerID, f.CollectionID, f.Topic, f.Limit, f.Offset)

	query := sqlBuilder.Select(flashcardColumns...).
		From("flashcards").
		Where(dueConditions(f)).
		OrderBy("next_due_at ASC", "id ASC")
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		query = query.Offset(uint64(f.Offset))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query due flashcards: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := []models.Flashcard{}
	for rows.Next() {
		c, err := scanFlashcard(rows)
		if err != nil {
			log.Error("failed to scan flashcard row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d due flashcards", len(cards))
	return cards, rows.Err()
}

func (r *flashcardRepository) CountDue(ctx context.Context, f models.DueFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")

	sqlStr, args, err := sqlBuilder.Select("COUNT(*)").
		From("flashcards").
		Where(dueConditions(f)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count due flashcards: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *flashcardRepository) UpdateSchedule(ctx context.Context, c models.Flashcard, expectedVersion int64, h *models.ReviewHistory) error {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("updating flashcard schedule: id=%s, version=%d, interval=%d, ease=%d, repetition=%d",
		c.ID, expectedVersion, c.IntervalDays, c.EaseFactor, c.RepetitionCount)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE flashcards
SET repetition_count = ?, ease_factor = ?, interval_days = ?, last_studied_at = ?, next_due_at = ?, updated_at = ?, version = version + 1
WHERE id = ? AND owner_id = ? AND version = ?
`, c.RepetitionCount, c.EaseFactor, c.IntervalDays, nullTime(c.LastStudiedAt), c.NextDueAt.UTC(), c.UpdatedAt.UTC(),
			c.ID, c.OwnerID, expectedVersion)
		if err != nil {
			log.Error("failed to update flashcard: %v", err)
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM flashcards WHERE id = ? AND owner_id = ?`, c.ID, c.OwnerID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrCardNotFound
			}
			if err != nil {
				return err
			}
			log.Debug("version conflict: id=%s, expected_version=%d", c.ID, expectedVersion)
			return repository.ErrConflict
		}

		if h == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO review_history (flashcard_id, quality, time_seconds, reviewed_at)
VALUES (?, ?, ?, ?)
`, c.ID, h.Quality, h.TimeSeconds, h.ReviewedAt.UTC()); err != nil {
			log.Error("failed to insert review history: %v", err)
			return err
		}
		return nil
	})
}

func (r *flashcardRepository) Delete(ctx context.Context, id, ownerID string) error {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("deleting flashcard: id=%s, owner_id=%s", id, ownerID)

	res, err := r.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		log.Error("failed to delete flashcard: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrCardNotFound
	}
	return nil
}

func (r *flashcardRepository) ReviewHistory(ctx context.Context, flashcardID string) ([]models.ReviewHistory, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, flashcard_id, quality, time_seconds, reviewed_at
FROM review_history
WHERE flashcard_id = ?
ORDER BY reviewed_at ASC, id ASC
`, flashcardID)
	if err != nil {
		log.Error("failed to query review history: %v", err)
		return nil, err
	}
	defer rows.Close()

	var history []models.ReviewHistory
	for rows.Next() {
		var h models.ReviewHistory
		if err := rows.Scan(&h.ID, &h.FlashcardID, &h.Quality, &h.TimeSeconds, &h.ReviewedAt); err != nil {
			log.Error("failed to scan review history row: %v", err)
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
