package eventbus

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
)

// Publisher sends serialized envelopes to a broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// DomainEventPublisher delivers committed domain events to local consumers.
type DomainEventPublisher interface {
	PublishDomainEvents(ctx context.Context, events []domain.DomainEvent) error
}

// NoopPublisher drops everything. Used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that only logs.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.logger.Debug("noop publish", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *NoopPublisher) PublishDomainEvents(context.Context, []domain.DomainEvent) error {
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
