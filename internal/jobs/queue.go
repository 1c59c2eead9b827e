package jobs

import "github.com/vytor/mindforge/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueImport(ownerID string, drafts []models.FlashcardDraft) error
}
