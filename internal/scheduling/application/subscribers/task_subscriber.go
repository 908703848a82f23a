package subscribers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

// TaskSubscriber turns productivity events into schedule triggers.
// Rescheduled events are ignored since recomputes produce them.
type TaskSubscriber struct {
	sink   domain.TriggerSink
	clock  sharedDomain.Clock
	logger *slog.Logger
}

// NewTaskSubscriber creates a TaskSubscriber.
func NewTaskSubscriber(sink domain.TriggerSink, clock sharedDomain.Clock, logger *slog.Logger) *TaskSubscriber {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskSubscriber{sink: sink, clock: clock, logger: logger}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *TaskSubscriber) EventTypes() []string {
	return []string{
		task.RoutingKeyCreated,
		task.RoutingKeyUpdated,
		task.RoutingKeyCompleted,
		task.RoutingKeyPriorityLocked,
		task.RoutingKeyPriorityUnlocked,
	}
}

// Handle maps the event to a trigger and submits it.
func (s *TaskSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	userID := event.Metadata.UserID
	if userID == uuid.Nil {
		s.logger.Warn("task event without user, skipping",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
		)
		return nil
	}

	trigger, err := s.triggerFor(event)
	if err != nil {
		return err
	}
	if trigger == nil {
		return nil
	}

	if event.Metadata.CorrelationID != uuid.Nil {
		ctx = observability.WithCorrelationID(ctx, event.Metadata.CorrelationID.String())
	}
	if err := s.sink.Submit(ctx, userID, trigger); err != nil {
		return fmt.Errorf("submit %s for task %s: %w", trigger.Kind(), event.AggregateID, err)
	}

	s.logger.Debug("task event submitted",
		"routing_key", event.RoutingKey,
		"task_id", event.AggregateID,
		"trigger", trigger.Kind().String(),
	)
	return nil
}

func (s *TaskSubscriber) triggerFor(event *eventbus.ConsumedEvent) (domain.Trigger, error) {
	now := s.clock.Now()
	taskID := event.AggregateID

	switch event.RoutingKey {
	case task.RoutingKeyCreated:
		return domain.Created{TaskID: taskID, Time: now}, nil
	case task.RoutingKeyCompleted:
		return domain.Completed{TaskID: taskID, Time: now}, nil
	case task.RoutingKeyPriorityUnlocked:
		return domain.Unlocked{TaskID: taskID, Time: now}, nil
	case task.RoutingKeyPriorityLocked:
		var payload struct {
			Score    int    `json:"score"`
			Reason   string `json:"reason"`
			LockedBy string `json:"locked_by"`
		}
		if err := event.Decode(&payload); err != nil {
			return nil, err
		}
		return domain.Locked{
			TaskID: taskID,
			Score:  payload.Score,
			Reason: payload.Reason,
			By:     payload.LockedBy,
			Time:   now,
		}, nil
	case task.RoutingKeyUpdated:
		var payload struct {
			Fields []string `json:"fields"`
		}
		if err := event.Decode(&payload); err != nil {
			return nil, err
		}
		reason := "task updated"
		if len(payload.Fields) > 0 {
			reason += ": " + strings.Join(payload.Fields, ",")
		}
		return domain.Rebuild{Reason: reason, Time: now}, nil
	default:
		s.logger.Debug("unhandled task event", "routing_key", event.RoutingKey)
		return nil, nil
	}
}
