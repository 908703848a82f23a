package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/google/uuid"
)

// UpdateTaskCommand changes scheduling-relevant fields. Nil fields are left
// untouched; ClearDueDate removes the due date.
type UpdateTaskCommand struct {
	UserID           uuid.UUID
	TaskID           uuid.UUID
	Title            *string
	DueDate          *time.Time
	ClearDueDate     bool
	EstimatedMinutes *int
	Tags             *[]string
	Status           *string
	WorkMode         *string
	CognitiveLoad    *string
	CorrelationID    uuid.UUID
}

// UpdateTaskHandler handles UpdateTaskCommand.
type UpdateTaskHandler struct {
	store TaskStore
}

// NewUpdateTaskHandler creates an UpdateTaskHandler.
func NewUpdateTaskHandler(store TaskStore) *UpdateTaskHandler {
	return &UpdateTaskHandler{store: store}
}

// Handle applies the changes and emits productivity.task.updated listing
// the changed fields. A command that changes nothing emits nothing.
func (h *UpdateTaskHandler) Handle(ctx context.Context, cmd UpdateTaskCommand) error {
	now := h.store.clock().Now()
	_, err := h.store.mutate(ctx, cmd.UserID, cmd.TaskID, cmd.CorrelationID, func(t *task.Task) error {
		fields, err := applyUpdate(t, cmd, now)
		if err != nil {
			return err
		}
		t.MarkUpdated(fields, now)
		return nil
	})
	return err
}

func applyUpdate(t *task.Task, cmd UpdateTaskCommand, now time.Time) ([]string, error) {
	if t.IsCompleted() {
		return nil, task.ErrTaskCompleted
	}

	var fields []string
	if cmd.Title != nil {
		if err := t.SetTitle(*cmd.Title, now); err != nil {
			return nil, err
		}
		fields = append(fields, "title")
	}
	if cmd.ClearDueDate || cmd.DueDate != nil {
		due := cmd.DueDate
		if cmd.ClearDueDate {
			due = nil
		}
		if err := t.SetDueDate(due, now); err != nil {
			return nil, err
		}
		fields = append(fields, "due_date")
	}
	if cmd.EstimatedMinutes != nil {
		d, err := vo.NewDuration(*cmd.EstimatedMinutes)
		if err != nil {
			return nil, err
		}
		if err := t.SetDuration(d, now); err != nil {
			return nil, err
		}
		fields = append(fields, "estimated_minutes")
	}
	if cmd.Tags != nil {
		t.SetTags(*cmd.Tags, now)
		fields = append(fields, "tags")
	}
	if cmd.WorkMode != nil {
		mode, err := vo.ParseWorkMode(*cmd.WorkMode)
		if err != nil {
			return nil, err
		}
		t.SetWorkMode(mode, now)
		fields = append(fields, "work_mode")
	}
	if cmd.CognitiveLoad != nil {
		load, err := vo.ParseCognitiveLoad(*cmd.CognitiveLoad)
		if err != nil {
			return nil, err
		}
		t.SetCognitiveLoad(load, now)
		fields = append(fields, "cognitive_load")
	}
	// status last: completing freezes the other fields
	if cmd.Status != nil {
		status, err := task.ParseStatus(*cmd.Status)
		if err != nil {
			return nil, err
		}
		if err := t.SetStatus(status, now); err != nil {
			return nil, err
		}
		if status != task.StatusCompleted {
			fields = append(fields, "status")
		}
	}
	return fields, nil
}
