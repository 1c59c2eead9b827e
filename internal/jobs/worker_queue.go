package jobs

import (
	"github.com/vytor/mindforge/internal/models"
	"github.com/vytor/mindforge/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	importPool *worker.Pool
	cards      worker.CardCreator
	batchSize  int
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(importPool *worker.Pool, cards worker.CardCreator, batchSize int) JobQueue {
	return &WorkerQueue{
		importPool: importPool,
		cards:      cards,
		batchSize:  batchSize,
	}
}

func (q *WorkerQueue) EnqueueImport(ownerID string, drafts []models.FlashcardDraft) error {
	// The caller may reuse its slice once this returns.
	owned := make([]models.FlashcardDraft, len(drafts))
	copy(owned, drafts)

	return q.importPool.Submit(&worker.ImportCardsJob{
		Cards:     q.cards,
		OwnerID:   ownerID,
		Drafts:    owned,
		BatchSize: q.batchSize,
	})
}
