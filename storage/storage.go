package storage

import (
	"context"

	"taskrabbit-scraper/models"
)

// Sink is a secondary destination for a finished run. The CSV file is
// the primary output; sinks receive the same records afterwards.
type Sink interface {
	Name() string
	Store(ctx context.Context, result models.RunResult) error
	Close() error
}
