package workers

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/google/uuid"
)

// DefaultSyncInterval is the default interval between sync cycles.
const DefaultSyncInterval = 5 * time.Minute

// Syncer runs one sync pass for a user. *application.SyncService satisfies it.
type Syncer interface {
	SyncAll(ctx context.Context, userID uuid.UUID) (*application.SyncReport, error)
}

// CalendarSyncWorker periodically imports every calendar source.
type CalendarSyncWorker struct {
	syncer   Syncer
	users    []uuid.UUID
	interval time.Duration
	logger   *slog.Logger

	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCalendarSyncWorker creates a new calendar sync worker.
func NewCalendarSyncWorker(syncer Syncer, users []uuid.UUID, interval time.Duration, logger *slog.Logger) *CalendarSyncWorker {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarSyncWorker{
		syncer:   syncer,
		users:    users,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Run syncs immediately, then on every interval, until ctx is cancelled or
// Stop is called.
func (w *CalendarSyncWorker) Run(ctx context.Context) error {
	if w.syncer == nil || len(w.users) == 0 {
		w.logger.Warn("calendar sync not configured, worker will not start")
		return nil
	}

	w.running.Store(true)
	defer w.running.Store(false)
	w.logger.Info("calendar sync worker started", "interval", w.interval, "users", len(w.users))

	w.RunCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("calendar sync worker stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.logger.Info("calendar sync worker stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.RunCycle(ctx)
		}
	}
}

// RunCycle syncs every user once.
func (w *CalendarSyncWorker) RunCycle(ctx context.Context) {
	w.logger.Debug("starting sync cycle")

	for _, userID := range w.users {
		if ctx.Err() != nil {
			return
		}
		report, err := w.syncer.SyncAll(ctx, userID)
		if err != nil {
			w.logger.Error("calendar sync failed", "user_id", userID, "error", err)
			continue
		}
		if failed := report.Failed(); len(failed) > 0 {
			w.logger.Warn("calendar sources failed",
				"user_id", userID,
				"failed", len(failed),
				"sources", len(report.Results),
			)
		}
	}

	w.logger.Debug("sync cycle completed")
}

// Stop signals the worker to stop gracefully.
func (w *CalendarSyncWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// IsRunning returns true if the worker is currently running.
func (w *CalendarSyncWorker) IsRunning() bool {
	return w.running.Load()
}
