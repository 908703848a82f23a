package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// TaskStore is what every task command needs: the repository, the outbox,
// a unit of work spanning both, and the local bus that triggers a schedule
// recompute after commit.
type TaskStore struct {
	Tasks      task.Repository
	Outbox     outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork
	Publisher  eventbus.DomainEventPublisher
	Clock      domain.Clock
	Logger     *slog.Logger
}

func (s TaskStore) clock() domain.Clock {
	if s.Clock == nil {
		return domain.SystemClock{}
	}
	return s.Clock
}

func (s TaskStore) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// mutate loads the task, applies fn and saves it with its events.
func (s TaskStore) mutate(ctx context.Context, userID, taskID, correlationID uuid.UUID, fn func(t *task.Task) error) (*task.Task, error) {
	var events []domain.DomainEvent
	t, err := sharedApplication.WithUnitOfWorkResult(ctx, s.UnitOfWork, func(txCtx context.Context) (*task.Task, error) {
		t, err := s.Tasks.FindByID(txCtx, taskID)
		if err != nil {
			return nil, err
		}
		if t.UserID() != userID {
			return nil, task.ErrTaskNotFound
		}
		if err := fn(t); err != nil {
			return nil, err
		}
		events, err = s.persist(txCtx, t, userID, correlationID)
		return t, err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	return t, nil
}

// persist saves t and its pending events inside the caller's unit of work.
func (s TaskStore) persist(txCtx context.Context, t *task.Task, userID, correlationID uuid.UUID) ([]domain.DomainEvent, error) {
	events := t.PullDomainEvents()
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(userID, correlationID))

	if err := s.Tasks.Save(txCtx, t); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return nil, err
	}
	if err := s.Outbox.SaveBatch(txCtx, msgs); err != nil {
		return nil, fmt.Errorf("save outbox: %w", err)
	}
	return events, nil
}

// publish hands committed events to local subscribers. The outbox already
// holds them, so a failure here only delays the schedule until the next tick.
func (s TaskStore) publish(ctx context.Context, events []domain.DomainEvent) {
	if s.Publisher == nil || len(events) == 0 {
		return
	}
	if err := s.Publisher.PublishDomainEvents(ctx, events); err != nil {
		s.logger().Error("local event delivery failed", "events", len(events), "error", err)
	}
}
