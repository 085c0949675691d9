package github

import (
	"context"
	"time"

	"github.com/Kamar-Folarin/github-trending/internal/models"
)

// Fetcher defines the interface for pulling ranked repositories from upstream
type Fetcher interface {
	// FetchTopRepositories returns the current top repositories, most starred first
	FetchTopRepositories(ctx context.Context) ([]*models.Snapshot, error)
}

// SyncService defines the interface for sync operations
type SyncService interface {
	// RunCycle fetches, reconciles and prunes once
	RunCycle(ctx context.Context) (*models.SyncReport, error)

	// Prune trims the store back to the snapshot cap
	Prune(ctx context.Context) (int64, error)

	// StartPeriodic schedules RunCycle every interval, replacing any active schedule
	StartPeriodic(ctx context.Context, interval time.Duration, onFailure func(error))

	// StopPeriodic cancels the active schedule and waits for it to exit
	StopPeriodic()

	// Scheduled reports whether a periodic schedule is running
	Scheduled() bool

	// LastReport returns the report of the most recent successful cycle, or nil
	LastReport() *models.SyncReport
}
