package api

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/mindforge/internal/jobs"
	"github.com/vytor/mindforge/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	FlashcardService services.FlashcardService
	JobQueue         jobs.JobQueue
	DB               Pinger
	Validate         *validator.Validate
	DuePageSize      int
	MaxImportBatch   int
	RequestTimeout   time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (s *Server) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
