package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	// AggregateType is the aggregate type for a user's imported calendar.
	AggregateType = "calendar"

	RoutingKeyEventsSynced = "calendar.events.synced"
)

// EventsSynced is published after a sync pass changed at least one source.
type EventsSynced struct {
	sharedDomain.BaseEvent
	UserID  uuid.UUID `json:"user_id"`
	Sources []string  `json:"sources"`
	Events  int       `json:"events"`
}

// NewEventsSynced creates an EventsSynced event.
func NewEventsSynced(userID uuid.UUID, sources []string, events int, at time.Time) *EventsSynced {
	return &EventsSynced{
		BaseEvent: sharedDomain.NewBaseEvent(userID, AggregateType, RoutingKeyEventsSynced, at),
		UserID:    userID,
		Sources:   sources,
		Events:    events,
	}
}
