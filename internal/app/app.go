// Package app wires the store, the search client, the sync engine and the
// interactive session into one process-wide application state.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-trending/internal/api"
	"github.com/Kamar-Folarin/github-trending/internal/config"
	"github.com/Kamar-Folarin/github-trending/internal/db"
	"github.com/Kamar-Folarin/github-trending/internal/errors"
	"github.com/Kamar-Folarin/github-trending/internal/github"
	"github.com/Kamar-Folarin/github-trending/internal/session"
)

// App owns everything that lives for the whole process
type App struct {
	cfg     *config.Config
	logger  *logrus.Logger
	store   db.Store
	fetcher github.Fetcher
	sync    github.SyncService
	server  *http.Server
	offline atomic.Bool
}

// Option customises App construction
type Option func(*App)

// WithStore replaces the store opened from cfg.DBLocation
func WithStore(store db.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithFetcher replaces the GitHub search client
func WithFetcher(fetcher github.Fetcher) Option {
	return func(a *App) {
		a.fetcher = fetcher
	}
}

// New opens the store and builds the sync engine. The caller must Close the
// returned App.
func New(cfg *config.Config, logger *logrus.Logger, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	a.offline.Store(cfg.Offline)

	if a.store == nil {
		store, err := db.Open(cfg.DBLocation, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.store = store
	}

	if a.fetcher == nil {
		client, err := github.NewGitHubClient(cfg.GitHub, logger)
		if err != nil {
			a.store.Close()
			return nil, err
		}
		a.fetcher = client
	}

	a.sync = github.NewSyncService(a.fetcher, a.store, cfg.Sync, logger)
	return a, nil
}

// Offline reports whether network activity is disabled
func (a *App) Offline() bool {
	return a.offline.Load()
}

func (a *App) enterOffline(err error) {
	if a.offline.Swap(true) {
		return
	}
	a.logger.WithError(err).WithField("rate_limited", github.IsRateLimitError(err)).Error("Fetch failed. Entering offline mode")
}

// Start ensures the schema exists, runs the first sync cycle unless offline,
// and starts the optional HTTP API. A store failure is logged and startup
// carries on; later commands report their own store errors.
func (a *App) Start(ctx context.Context) {
	if err := a.ensureSchema(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to prepare database")
	}

	if a.cfg.HTTPAddr != "" {
		a.serve()
	}

	if a.Offline() {
		a.logger.Info("Launching in offline mode")
		return
	}

	a.startSync(ctx)
}

func (a *App) ensureSchema(ctx context.Context) error {
	exists, err := a.store.TableExists(ctx)
	if err != nil {
		return err
	}

	if err := a.store.Migrate(ctx); err != nil {
		return err
	}

	if !exists {
		a.logger.Debug("Table created")
	}
	return nil
}

// startSync runs one cycle and, if it succeeds, schedules the next ones
func (a *App) startSync(ctx context.Context) {
	a.logger.Info("Fetching data from Github")

	report, err := a.sync.RunCycle(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		a.logger.WithError(err).Debug("Sync cancelled")
		return
	case errors.IsFetch(err):
		a.enterOffline(err)
		return
	case err != nil:
		a.logger.WithError(err).Error("Sync failed")
		return
	}

	a.logger.WithFields(logrus.Fields{
		"fetched":  report.Fetched,
		"inserted": report.Inserted,
		"updated":  report.Updated,
		"pruned":   report.Pruned,
	}).Debug("Initial sync complete")

	a.sync.StartPeriodic(ctx, a.cfg.Sync.Interval, a.enterOffline)
}

// Refresh cancels the running schedule and repeats the startup sync. It is a
// no-op while offline.
func (a *App) Refresh(ctx context.Context) error {
	if a.Offline() {
		return nil
	}

	a.sync.StopPeriodic()
	a.startSync(ctx)
	return nil
}

// Run prints the command help and hands stdin over to the session loop until
// the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s := session.New(a.store, a, out, a.logger)
	s.PrintHelp()
	return s.Run(ctx, in)
}

func (a *App) serve() {
	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(a.store, a, a.logger)

	a.server = &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      api.SetupRouter(handler, a.logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		a.logger.Infof("HTTP API listening on %s", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("HTTP API failed")
		}
	}()
}

// Status describes the sync state for the HTTP API
func (a *App) Status(ctx context.Context) api.Status {
	status := api.Status{
		Offline:   a.Offline(),
		Scheduled: a.sync.Scheduled(),
		Interval:  a.cfg.Sync.Interval.String(),
		LastSync:  a.sync.LastReport(),
	}
	if n, err := a.store.CountSnapshots(ctx); err == nil {
		status.Count = n
	} else {
		a.logger.WithError(err).Error("Failed to count repositories")
	}
	return status
}

// Close stops the schedule and the HTTP API, then releases the store
func (a *App) Close() error {
	a.sync.StopPeriodic()

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Error("HTTP API shutdown failed")
		}
	}

	if err := a.store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	a.logger.Debug("Database closed")
	return nil
}
