package task

import (
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated          = "productivity.task.created"
	RoutingKeyUpdated          = "productivity.task.updated"
	RoutingKeyCompleted        = "productivity.task.completed"
	RoutingKeyPriorityLocked   = "productivity.task.priority_locked"
	RoutingKeyPriorityUnlocked = "productivity.task.priority_unlocked"
	RoutingKeyRescheduled      = "productivity.task.rescheduled"
)

// TaskCreated is emitted when a new task is created.
type TaskCreated struct {
	domain.BaseEvent
	UserID           uuid.UUID `json:"user_id"`
	Title            string    `json:"title"`
	EstimatedMinutes int       `json:"estimated_minutes"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(t *Task, at time.Time) *TaskCreated {
	return &TaskCreated{
		BaseEvent:        domain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyCreated, at),
		UserID:           t.userID,
		Title:            t.title,
		EstimatedMinutes: t.duration.Minutes(),
	}
}

// TaskUpdated is emitted when scheduling-relevant fields change.
type TaskUpdated struct {
	domain.BaseEvent
	Fields []string `json:"fields"`
}

// NewTaskUpdated creates a TaskUpdated event.
func NewTaskUpdated(taskID uuid.UUID, fields []string, at time.Time) *TaskUpdated {
	return &TaskUpdated{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyUpdated, at),
		Fields:    fields,
	}
}

// TaskCompleted is emitted when a task is completed.
type TaskCompleted struct {
	domain.BaseEvent
}

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(taskID uuid.UUID, at time.Time) *TaskCompleted {
	return &TaskCompleted{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCompleted, at),
	}
}

// PriorityLocked is emitted when a user pins a task's score.
type PriorityLocked struct {
	domain.BaseEvent
	Score    int    `json:"score"`
	Reason   string `json:"reason,omitempty"`
	LockedBy string `json:"locked_by,omitempty"`
}

// NewPriorityLocked creates a PriorityLocked event.
func NewPriorityLocked(taskID uuid.UUID, score int, reason, lockedBy string, at time.Time) *PriorityLocked {
	return &PriorityLocked{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyPriorityLocked, at),
		Score:     score,
		Reason:    reason,
		LockedBy:  lockedBy,
	}
}

// PriorityUnlocked is emitted when the override is removed.
type PriorityUnlocked struct {
	domain.BaseEvent
}

// NewPriorityUnlocked creates a PriorityUnlocked event.
func NewPriorityUnlocked(taskID uuid.UUID, at time.Time) *PriorityUnlocked {
	return &PriorityUnlocked{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyPriorityUnlocked, at),
	}
}

// TaskRescheduled is emitted when an overdue task receives a new due date.
type TaskRescheduled struct {
	domain.BaseEvent
	PreviousDue *time.Time `json:"previous_due,omitempty"`
	NewDue      time.Time  `json:"new_due"`
	Tier        string     `json:"tier"`
}

// NewTaskRescheduled creates a TaskRescheduled event.
func NewTaskRescheduled(taskID uuid.UUID, previous *time.Time, newDue time.Time, tier string, at time.Time) *TaskRescheduled {
	return &TaskRescheduled{
		BaseEvent:   domain.NewBaseEvent(taskID, AggregateType, RoutingKeyRescheduled, at),
		PreviousDue: previous,
		NewDue:      newDue,
		Tier:        tier,
	}
}
