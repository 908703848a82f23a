package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

const (
	// DefaultReminderInterval is the default time between scans.
	DefaultReminderInterval = time.Minute
	// DefaultReminderLead is how long before a block starts it is announced.
	DefaultReminderLead = 10 * time.Minute
)

// ReminderConfig configures a ReminderWorker.
type ReminderConfig struct {
	Interval time.Duration
	Lead     time.Duration
}

type reminderKey struct {
	taskID uuid.UUID
	start  time.Time
}

// ReminderWorker writes a block-starting event to the outbox for every block
// beginning within the lead time. Rebuilds replace block IDs, so a reminder
// is remembered by task and start time.
type ReminderWorker struct {
	blocks  domain.BlockRepository
	outbox  outbox.Repository
	config  ReminderConfig
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger

	mu   sync.Mutex
	sent map[reminderKey]struct{}

	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewReminderWorker creates a ReminderWorker.
func NewReminderWorker(
	blocks domain.BlockRepository,
	outboxRepo outbox.Repository,
	config ReminderConfig,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ReminderWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultReminderInterval
	}
	if config.Lead <= 0 {
		config.Lead = DefaultReminderLead
	}
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderWorker{
		blocks:  blocks,
		outbox:  outboxRepo,
		config:  config,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
		sent:    map[reminderKey]struct{}{},
		stopCh:  make(chan struct{}),
	}
}

// Run scans once immediately, then on every interval.
func (w *ReminderWorker) Run(ctx context.Context) error {
	w.running.Store(true)
	defer w.running.Store(false)
	w.logger.Info("reminder worker started", "interval", w.config.Interval, "lead", w.config.Lead)

	w.scanAndLog(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.logger.Info("reminder worker stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.scanAndLog(ctx)
		}
	}
}

// Stop signals the worker to stop.
func (w *ReminderWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// IsRunning reports whether Run is active.
func (w *ReminderWorker) IsRunning() bool {
	return w.running.Load()
}

func (w *ReminderWorker) scanAndLog(ctx context.Context) {
	if _, err := w.Scan(ctx); err != nil {
		w.logger.Error("reminder scan failed", "error", err)
	}
}

// Scan announces blocks starting in (now, now+lead] that were not announced
// before, and returns how many it wrote.
func (w *ReminderWorker) Scan(ctx context.Context) (int, error) {
	now := w.clock.Now()
	blocks, err := w.blocks.FindStartingBetween(ctx, now, now.Add(w.config.Lead))
	if err != nil {
		return 0, fmt.Errorf("find starting blocks: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.forget(now)

	var msgs []*outbox.Message
	var keys []reminderKey
	for _, b := range blocks {
		key := reminderKey{taskID: b.TaskID(), start: b.Start()}
		if _, ok := w.sent[key]; ok {
			continue
		}
		event := domain.NewBlockStarting(b, now)
		sharedApplication.ApplyEventMetadata(
			[]sharedDomain.DomainEvent{event},
			sharedApplication.NewEventMetadata(b.UserID(), uuid.Nil),
		)
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, msg)
		keys = append(keys, key)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	if err := w.outbox.SaveBatch(ctx, msgs); err != nil {
		return 0, fmt.Errorf("save reminders: %w", err)
	}
	for _, key := range keys {
		w.sent[key] = struct{}{}
	}
	w.metrics.Counter(observability.MetricReminders, int64(len(msgs)))
	w.logger.Debug("block reminders queued", "count", len(msgs))
	return len(msgs), nil
}

func (w *ReminderWorker) forget(now time.Time) {
	for key := range w.sent {
		if !key.start.After(now) {
			delete(w.sent, key)
		}
	}
}
