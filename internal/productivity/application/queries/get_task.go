package queries

import (
	"context"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// GetTaskQuery asks for a single task.
type GetTaskQuery struct {
	UserID uuid.UUID
	TaskID uuid.UUID
}

// GetTaskHandler handles GetTaskQuery.
type GetTaskHandler struct {
	taskRepo task.Repository
	clock    domain.Clock
}

// NewGetTaskHandler creates a new GetTaskHandler.
func NewGetTaskHandler(taskRepo task.Repository, clock domain.Clock) *GetTaskHandler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &GetTaskHandler{taskRepo: taskRepo, clock: clock}
}

// Handle returns the task or task.ErrTaskNotFound, including when the task
// belongs to another user.
func (h *GetTaskHandler) Handle(ctx context.Context, query GetTaskQuery) (*TaskDTO, error) {
	t, err := h.taskRepo.FindByID(ctx, query.TaskID)
	if err != nil {
		return nil, err
	}
	if t.UserID() != query.UserID {
		return nil, task.ErrTaskNotFound
	}
	dto := ToTaskDTO(t, h.clock.Now())
	return &dto, nil
}
