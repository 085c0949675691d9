package github

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-trending/internal/config"
	"github.com/Kamar-Folarin/github-trending/internal/db"
	"github.com/Kamar-Folarin/github-trending/internal/errors"
	"github.com/Kamar-Folarin/github-trending/internal/models"
)

// SyncServiceImpl implements the SyncService interface
type SyncServiceImpl struct {
	fetcher Fetcher
	store   db.Store
	config  *config.SyncConfig
	logger  *logrus.Logger

	// cycleMu serialises cycles and pruning so no two ever overlap
	cycleMu sync.Mutex

	// mu guards the schedule handles; the periodic goroutine never takes it
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	reportMu   sync.RWMutex
	lastReport *models.SyncReport
}

// NewSyncService creates a new sync service
func NewSyncService(fetcher Fetcher, store db.Store, cfg *config.SyncConfig, logger *logrus.Logger) *SyncServiceImpl {
	return &SyncServiceImpl{
		fetcher: fetcher,
		store:   store,
		config:  cfg,
		logger:  logger,
	}
}

// RunCycle fetches the current ranking and reconciles it into the store.
// Only a failed fetch is returned; store failures are logged per snapshot and
// the cycle carries on.
func (s *SyncServiceImpl) RunCycle(ctx context.Context) (*models.SyncReport, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	report := &models.SyncReport{StartTime: time.Now()}

	snapshots, err := s.fetcher.FetchTopRepositories(ctx)
	if err != nil {
		return nil, err
	}
	report.Fetched = len(snapshots)

	for _, snapshot := range snapshots {
		s.reconcile(ctx, snapshot, report)
	}

	pruned, err := s.prune(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to prune records")
	}
	report.Pruned = pruned
	report.EndTime = time.Now()

	s.reportMu.Lock()
	s.lastReport = report
	s.reportMu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"fetched":   report.Fetched,
		"inserted":  report.Inserted,
		"updated":   report.Updated,
		"unchanged": report.Unchanged,
		"failed":    report.Failed,
		"pruned":    report.Pruned,
		"duration":  report.Duration(),
	}).Debug("Sync cycle complete")

	return report, nil
}

// reconcile inserts an unseen snapshot, refreshes a changed star count and
// leaves everything else alone.
func (s *SyncServiceImpl) reconcile(ctx context.Context, snapshot *models.Snapshot, report *models.SyncReport) {
	logger := s.logger.WithFields(logrus.Fields{
		"id":   snapshot.ID,
		"name": snapshot.Name,
	})

	existing, err := s.store.GetSnapshot(ctx, snapshot.ID)
	switch {
	case errors.IsNotFound(err):
		if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
			logger.WithError(err).Error("Failed to insert row")
			report.Failed++
			return
		}
		report.Inserted++
	case err != nil:
		logger.WithError(err).Error("Failed to look up row")
		report.Failed++
	case existing.Stars != snapshot.Stars:
		if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
			logger.WithError(err).WithField("stars", existing.Stars).Error("Failed to update row")
			report.Failed++
			return
		}
		report.Updated++
	default:
		report.Unchanged++
	}
}

// Prune trims the store back to the configured cap
func (s *SyncServiceImpl) Prune(ctx context.Context) (int64, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	return s.prune(ctx)
}

func (s *SyncServiceImpl) prune(ctx context.Context) (int64, error) {
	count, err := s.store.CountSnapshots(ctx)
	if err != nil {
		return 0, err
	}
	if count <= int64(s.config.MaxSnapshots) {
		return 0, nil
	}

	deleted, err := s.store.PruneBelowRank(ctx, s.config.MaxSnapshots)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"before":  count,
		"deleted": deleted,
	}).Debug("Database pruned")
	return deleted, nil
}

// StartPeriodic schedules a sync cycle every interval. Any active schedule is
// stopped first. A failed fetch ends the schedule and is handed to onFailure.
func (s *SyncServiceImpl) StartPeriodic(ctx context.Context, interval time.Duration, onFailure func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	s.logger.WithField("interval", interval).Debug("Starting sync ticker")
	go s.runPeriodic(runCtx, interval, done, onFailure)
}

func (s *SyncServiceImpl) runPeriodic(ctx context.Context, interval time.Duration, done chan struct{}, onFailure func(error)) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunCycle(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.WithError(err).Error("Scheduled sync failed")
				if onFailure != nil {
					onFailure(err)
				}
				return
			}
		}
	}
}

// StopPeriodic cancels the active schedule, if any, and waits for it to exit
func (s *SyncServiceImpl) StopPeriodic() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

func (s *SyncServiceImpl) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.logger.Debug("Sync ticker stopped")
}

// Scheduled reports whether a periodic schedule is still running
func (s *SyncServiceImpl) Scheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// LastReport returns the report of the most recent successful cycle
func (s *SyncServiceImpl) LastReport() *models.SyncReport {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()

	return s.lastReport
}
