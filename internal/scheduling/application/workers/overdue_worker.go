package workers

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// DefaultOverdueInterval is the default time between overdue passes.
const DefaultOverdueInterval = 5 * time.Minute

// OverdueWorker submits a Tick for each user on an interval. The engine
// decides whether auto rescheduling is enabled.
type OverdueWorker struct {
	sink     domain.TriggerSink
	users    []uuid.UUID
	interval time.Duration
	clock    sharedDomain.Clock
	logger   *slog.Logger

	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewOverdueWorker creates an OverdueWorker.
func NewOverdueWorker(
	sink domain.TriggerSink,
	users []uuid.UUID,
	interval time.Duration,
	clock sharedDomain.Clock,
	logger *slog.Logger,
) *OverdueWorker {
	if interval <= 0 {
		interval = DefaultOverdueInterval
	}
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OverdueWorker{
		sink:     sink,
		users:    users,
		interval: interval,
		clock:    clock,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Run ticks once immediately, then on every interval, until ctx is cancelled
// or Stop is called.
func (w *OverdueWorker) Run(ctx context.Context) error {
	if len(w.users) == 0 {
		w.logger.Warn("no users configured, overdue worker will not start")
		return nil
	}
	w.running.Store(true)
	defer w.running.Store(false)
	w.logger.Info("overdue worker started", "interval", w.interval, "users", len(w.users))

	w.Tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("overdue worker stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.logger.Info("overdue worker stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick submits one Tick trigger per user.
func (w *OverdueWorker) Tick(ctx context.Context) {
	now := w.clock.Now()
	for _, userID := range w.users {
		if ctx.Err() != nil {
			return
		}
		if err := w.sink.Submit(ctx, userID, domain.Tick{Time: now}); err != nil {
			w.logger.Error("failed to submit overdue tick", "user_id", userID, "error", err)
		}
	}
}

// Stop signals the worker to stop.
func (w *OverdueWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// IsRunning reports whether Run is active.
func (w *OverdueWorker) IsRunning() bool {
	return w.running.Load()
}
