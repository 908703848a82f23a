package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// CompleteTaskCommand marks a task done.
type CompleteTaskCommand struct {
	UserID        uuid.UUID
	TaskID        uuid.UUID
	CorrelationID uuid.UUID
}

// CompleteTaskHandler handles CompleteTaskCommand. Completing an already
// completed task returns task.ErrTaskCompleted.
type CompleteTaskHandler struct {
	store TaskStore
}

// NewCompleteTaskHandler creates a CompleteTaskHandler.
func NewCompleteTaskHandler(store TaskStore) *CompleteTaskHandler {
	return &CompleteTaskHandler{store: store}
}

func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) error {
	now := h.store.clock().Now()
	_, err := h.store.mutate(ctx, cmd.UserID, cmd.TaskID, cmd.CorrelationID, func(t *task.Task) error {
		return t.Complete(now)
	})
	return err
}
