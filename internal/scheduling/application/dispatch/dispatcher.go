// Package dispatch serializes schedule triggers through a single writer.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

// DefaultCapacity is the queue size used when none is configured.
const DefaultCapacity = 64

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("dispatcher stopped")

type job struct {
	userID        uuid.UUID
	trigger       domain.Trigger
	correlationID string
}

// Dispatcher queues triggers and hands them to sink one at a time, so the
// worker's subscribers, ticks and listeners never recompute concurrently.
type Dispatcher struct {
	sink    domain.TriggerSink
	queue   chan job
	metrics observability.Metrics
	logger  *slog.Logger

	running  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Dispatcher in front of sink.
func New(sink domain.TriggerSink, capacity int, metrics observability.Metrics, logger *slog.Logger) *Dispatcher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan job, capacity),
		metrics: metrics,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Submit enqueues trigger. It blocks while the queue is full until ctx ends.
func (d *Dispatcher) Submit(ctx context.Context, userID uuid.UUID, trigger domain.Trigger) error {
	j := job{
		userID:        userID,
		trigger:       trigger,
		correlationID: observability.CorrelationIDFromContext(ctx),
	}
	select {
	case <-d.stopCh:
		return ErrStopped
	default:
	}
	select {
	case d.queue <- j:
		d.metrics.Gauge(observability.MetricDispatchQueue, float64(len(d.queue)))
		return nil
	case <-d.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued triggers until ctx is cancelled or Stop is called.
// After Stop, triggers already queued are still processed.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.running.Store(true)
	defer d.running.Store(false)
	d.logger.Info("trigger dispatcher started", "capacity", cap(d.queue))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("trigger dispatcher stopped (context cancelled)", "dropped", len(d.queue))
			return ctx.Err()
		case <-d.stopCh:
			d.drain(ctx)
			d.logger.Info("trigger dispatcher stopped (stop signal)")
			return nil
		case j := <-d.queue:
			d.process(ctx, j)
		}
	}
}

// Stop makes Submit fail and lets Run drain the queue and return.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// IsRunning reports whether Run is active.
func (d *Dispatcher) IsRunning() bool {
	return d.running.Load()
}

// Pending is the number of queued triggers.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case j := <-d.queue:
			d.process(ctx, j)
		default:
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, j job) {
	d.metrics.Gauge(observability.MetricDispatchQueue, float64(len(d.queue)))
	ctx = observability.WithUserID(ctx, j.userID.String())
	if j.correlationID != "" {
		ctx = observability.WithCorrelationID(ctx, j.correlationID)
	}
	if err := d.sink.Submit(ctx, j.userID, j.trigger); err != nil {
		d.logger.Error("recompute failed",
			"user_id", j.userID,
			"trigger", j.trigger.Kind().String(),
			"error", err,
		)
	}
}
