package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/mindforge/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueImport(ownerID string, drafts []models.FlashcardDraft) error {
	args := m.Called(ownerID, drafts)
	return args.Error(0)
}
