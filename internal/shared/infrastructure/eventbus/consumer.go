package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// EventConsumer handles the routing keys it declares.
type EventConsumer interface {
	// EventTypes returns routing keys such as "productivity.task.created".
	EventTypes() []string

	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is the envelope carried on the wire and on the in-process bus.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata mirrors domain.EventMetadata on the wire.
type EventMetadata struct {
	UserID        uuid.UUID `json:"user_id,omitempty"`
	CorrelationID uuid.UUID `json:"correlation_id,omitempty"`
	CausationID   uuid.UUID `json:"causation_id,omitempty"`
}

// NewConsumedEvent wraps a domain event in an envelope.
func NewConsumedEvent(event domain.DomainEvent) (*ConsumedEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event.RoutingKey(), err)
	}
	meta := event.Metadata()
	return &ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
		Metadata: EventMetadata{
			UserID:        meta.UserID,
			CorrelationID: meta.CorrelationID,
			CausationID:   meta.CausationID,
		},
	}, nil
}

// Decode unmarshals the payload into v.
func (e *ConsumedEvent) Decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.RoutingKey, err)
	}
	return nil
}

// Consumer receives events from a broker and dispatches them to EventConsumers.
type Consumer interface {
	// Start blocks until ctx is done or the consumer is closed.
	Start(ctx context.Context) error
	RegisterConsumer(consumer EventConsumer)
	Close() error
}
