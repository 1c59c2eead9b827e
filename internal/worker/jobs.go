package worker

import (
	"context"
	"time"

	"github.com/vytor/mindforge/internal/logger"
	"github.com/vytor/mindforge/internal/models"
)

// CardCreator is the part of the flashcard service an import needs.
type CardCreator interface {
	CreateCards(ctx context.Context, ownerID string, drafts []models.FlashcardDraft, now time.Time) ([]string, error)
}

// ImportCardsJob stores a batch of generated cards in the background.
type ImportCardsJob struct {
	Cards     CardCreator
	OwnerID   string
	Drafts    []models.FlashcardDraft
	BatchSize int
	Clock     func() time.Time
}

func (j *ImportCardsJob) Name() string { return "import_cards" }

func (j *ImportCardsJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"owner_id": j.OwnerID,
		"cards":    len(j.Drafts),
	})
	log.Info("starting background import")

	clock := j.Clock
	if clock == nil {
		clock = time.Now
	}
	size := j.BatchSize
	if size <= 0 {
		size = len(j.Drafts)
	}

	var imported int
	for start := 0; start < len(j.Drafts); start += size {
		if err := ctx.Err(); err != nil {
			log.Warn("import cancelled after %d cards: %v", imported, err)
			return err
		}
		end := min(start+size, len(j.Drafts))

		ids, err := j.Cards.CreateCards(ctx, j.OwnerID, j.Drafts[start:end], clock())
		if err != nil {
			log.Error("failed to import batch [%d:%d]: %v", start, end, err)
			return err
		}
		imported += len(ids)
	}

	log.Info("imported %d cards", imported)
	return nil
}
