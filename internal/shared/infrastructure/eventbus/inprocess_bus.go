package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
)

// InProcessEventBus delivers events synchronously to registered consumers.
// It lets the CLI recompute a schedule right after a command commits,
// without a broker. Deliveries are serialized.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewInProcessEventBus creates a bus with an empty registry.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer subscribes consumer to its routing keys.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Registry exposes the underlying registry.
func (b *InProcessEventBus) Registry() *ConsumerRegistry {
	return b.registry
}

// Publish decodes an envelope and dispatches it. Malformed payloads are
// logged and dropped.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		b.logger.Error("dropping malformed envelope", "routing_key", routingKey, "error", err)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return b.Dispatch(ctx, event)
}

// PublishDomainEvents wraps and dispatches each event in order.
func (b *InProcessEventBus) PublishDomainEvents(ctx context.Context, events []domain.DomainEvent) error {
	var errs []error
	for _, event := range events {
		envelope, err := NewConsumedEvent(event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := b.Dispatch(ctx, envelope); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch delivers an envelope to its consumers and returns their errors.
func (b *InProcessEventBus) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	err := b.registry.Dispatch(ctx, event)
	b.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
		"failed", err != nil,
	)
	return err
}

func (b *InProcessEventBus) Close() error { return nil }
