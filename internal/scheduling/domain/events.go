package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Schedule"

	RoutingKeyScheduleRecomputed = "scheduling.schedule.recomputed"
	RoutingKeyConflictDetected   = "scheduling.conflict.detected"
	RoutingKeyTaskUnderScheduled = "scheduling.task.underscheduled"
	RoutingKeyBlockStarting      = "scheduling.block.starting"
)

// ScheduleRecomputed is emitted after every recompute that ran.
type ScheduleRecomputed struct {
	sharedDomain.BaseEvent
	UserID         uuid.UUID `json:"user_id"`
	Trigger        string    `json:"trigger"`
	Blocks         int       `json:"blocks"`
	Allocations    int       `json:"allocations"`
	UnderScheduled int       `json:"under_scheduled"`
	Rescheduled    int       `json:"rescheduled"`
	Conflicts      int       `json:"conflicts"`
}

// NewScheduleRecomputed creates a ScheduleRecomputed event from a report.
func NewScheduleRecomputed(userID uuid.UUID, report Report) *ScheduleRecomputed {
	return &ScheduleRecomputed{
		BaseEvent:      sharedDomain.NewBaseEvent(userID, AggregateType, RoutingKeyScheduleRecomputed, report.At),
		UserID:         userID,
		Trigger:        report.Trigger.String(),
		Blocks:         report.BlocksAfter,
		Allocations:    len(report.Allocations),
		UnderScheduled: len(report.UnderScheduled),
		Rescheduled:    len(report.OverdueChanges),
		Conflicts:      len(report.DetectedConflicts),
	}
}

// ConflictDetected is emitted for each block found overlapping an event.
type ConflictDetected struct {
	sharedDomain.BaseEvent
	UserID          uuid.UUID `json:"user_id"`
	BlockID         uuid.UUID `json:"block_id"`
	TaskID          uuid.UUID `json:"task_id"`
	CalendarEventID uuid.UUID `json:"event_id"`
	EventTitle      string    `json:"event_title"`
	Source          string    `json:"source"`
	BlockStart      time.Time `json:"block_start"`
	BlockEnd        time.Time `json:"block_end"`
	EventStart      time.Time `json:"event_start"`
	EventEnd        time.Time `json:"event_end"`
	Policy          string    `json:"policy"`
}

// NewConflictDetected creates a ConflictDetected event.
func NewConflictDetected(userID uuid.UUID, c Conflict, policy ConflictPolicy, at time.Time) *ConflictDetected {
	return &ConflictDetected{
		BaseEvent:       sharedDomain.NewBaseEvent(userID, AggregateType, RoutingKeyConflictDetected, at),
		UserID:          userID,
		BlockID:         c.BlockID,
		TaskID:          c.TaskID,
		CalendarEventID: c.EventID,
		EventTitle:      c.EventTitle,
		Source:          c.Source.String(),
		BlockStart:      c.BlockStart,
		BlockEnd:        c.BlockEnd,
		EventStart:      c.EventStart,
		EventEnd:        c.EventEnd,
		Policy:          string(policy),
	}
}

// TaskUnderScheduled is emitted when a task got fewer minutes than it needs.
type TaskUnderScheduled struct {
	sharedDomain.BaseEvent
	UserID    uuid.UUID `json:"user_id"`
	TaskID    uuid.UUID `json:"task_id"`
	Title     string    `json:"title"`
	Requested int       `json:"requested_minutes"`
	Allocated int       `json:"allocated_minutes"`
}

// NewTaskUnderScheduled creates a TaskUnderScheduled event.
func NewTaskUnderScheduled(userID uuid.UUID, a Allocation, at time.Time) *TaskUnderScheduled {
	return &TaskUnderScheduled{
		BaseEvent: sharedDomain.NewBaseEvent(a.TaskID, AggregateType, RoutingKeyTaskUnderScheduled, at),
		UserID:    userID,
		TaskID:    a.TaskID,
		Title:     a.Title,
		Requested: a.Requested,
		Allocated: a.Allocated,
	}
}

// BlockStarting is emitted shortly before a block begins.
type BlockStarting struct {
	sharedDomain.BaseEvent
	UserID      uuid.UUID `json:"user_id"`
	BlockID     uuid.UUID `json:"block_id"`
	TaskID      uuid.UUID `json:"task_id"`
	Title       string    `json:"title"`
	BlockType   string    `json:"block_type"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	LeadMinutes int       `json:"lead_minutes"`
}

// NewBlockStarting creates a BlockStarting event.
func NewBlockStarting(b TimeBlock, at time.Time) *BlockStarting {
	return &BlockStarting{
		BaseEvent:   sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBlockStarting, at),
		UserID:      b.UserID(),
		BlockID:     b.ID(),
		TaskID:      b.TaskID(),
		Title:       b.Title(),
		BlockType:   b.Type().String(),
		Start:       b.Start(),
		End:         b.End(),
		LeadMinutes: int(b.Start().Sub(at) / time.Minute),
	}
}
