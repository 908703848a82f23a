package commands

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/google/uuid"
)

// LockPriorityCommand pins a task's score. Scores outside [1,100] are clamped.
type LockPriorityCommand struct {
	UserID        uuid.UUID
	TaskID        uuid.UUID
	Score         int
	Reason        string
	LockedBy      string
	CorrelationID uuid.UUID
}

// LockPriorityHandler handles LockPriorityCommand.
type LockPriorityHandler struct {
	store TaskStore
}

// NewLockPriorityHandler creates a LockPriorityHandler.
func NewLockPriorityHandler(store TaskStore) *LockPriorityHandler {
	return &LockPriorityHandler{store: store}
}

// Handle locks the priority and returns the stored score.
func (h *LockPriorityHandler) Handle(ctx context.Context, cmd LockPriorityCommand) (int, error) {
	now := h.store.clock().Now()
	lockedBy := cmd.LockedBy
	if lockedBy == "" {
		lockedBy = cmd.UserID.String()
	}

	t, err := h.store.mutate(ctx, cmd.UserID, cmd.TaskID, cmd.CorrelationID, func(t *task.Task) error {
		return t.LockPriority(cmd.Score, cmd.Reason, lockedBy, now)
	})
	if err != nil {
		return 0, err
	}
	return t.LockedPriority().Score, nil
}

// UnlockPriorityCommand removes a pinned score.
type UnlockPriorityCommand struct {
	UserID        uuid.UUID
	TaskID        uuid.UUID
	CorrelationID uuid.UUID
}

// UnlockPriorityHandler handles UnlockPriorityCommand.
type UnlockPriorityHandler struct {
	store TaskStore
}

// NewUnlockPriorityHandler creates an UnlockPriorityHandler.
func NewUnlockPriorityHandler(store TaskStore) *UnlockPriorityHandler {
	return &UnlockPriorityHandler{store: store}
}

func (h *UnlockPriorityHandler) Handle(ctx context.Context, cmd UnlockPriorityCommand) error {
	now := h.store.clock().Now()
	_, err := h.store.mutate(ctx, cmd.UserID, cmd.TaskID, cmd.CorrelationID, func(t *task.Task) error {
		return t.UnlockPriority(now)
	})
	return err
}
