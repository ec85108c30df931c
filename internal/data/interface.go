// Package data persists the acquisition journal.
package data

import (
	"context"
	"time"
)

// Run outcomes.
const (
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Run is one journal row describing a finished acquisition.
type Run struct {
	ID           string
	Version      string
	Status       string
	Mirror       string
	Files        int64
	Bytes        int64
	NetworkBytes int64
	Started      time.Time
	Finished     time.Time
	Error        string
}

// Duration returns the wall-clock time the run took.
func (r Run) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Repository describes the persistence contract for the acquisition journal.
type Repository interface {
	// Bootstrap prepares the backing store (e.g. run migrations, seed data).
	Bootstrap(ctx context.Context) error
	RecordRun(ctx context.Context, run Run) error
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
