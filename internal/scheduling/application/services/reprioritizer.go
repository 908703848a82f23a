package services

import (
	"slices"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

// ReprioritizationEngine orders tasks by score plus deadline pressure and
// rebuilds the whole block set in that order.
type ReprioritizationEngine struct {
	core *SchedulerCore
}

// NewReprioritizationEngine creates an engine scheduling through core.
func NewReprioritizationEngine(core *SchedulerCore) *ReprioritizationEngine {
	return &ReprioritizationEngine{core: core}
}

// DeadlineBonus adds weight to tasks close to their due date.
func DeadlineBonus(t *task.Task, now time.Time) int {
	due := t.DueDate()
	if due == nil {
		return 0
	}
	left := due.Sub(now)
	switch {
	case left < 0:
		return 25
	case left < 6*time.Hour:
		return 20
	case left < 24*time.Hour:
		return 15
	case left < 72*time.Hour:
		return 10
	default:
		return 0
	}
}

// ReorderTasksByPriority returns tasks sorted by score plus deadline bonus,
// highest first. Ties keep their input order.
func (e *ReprioritizationEngine) ReorderTasksByPriority(tasks []*task.Task, now time.Time) []*task.Task {
	ordered := slices.Clone(tasks)
	slices.SortStableFunc(ordered, func(a, b *task.Task) int {
		return effectiveScore(b, now) - effectiveScore(a, now)
	})
	return ordered
}

// RescheduleAllTasks discards every block and schedules the todo and
// in-progress tasks again in priority order. Each task sees the blocks placed
// for the tasks before it.
func (e *ReprioritizationEngine) RescheduleAllTasks(state *schedulingDomain.SchedulerState, now time.Time) []schedulingDomain.Allocation {
	for _, t := range state.Tasks {
		if !t.IsCompleted() {
			e.core.RefreshPriority(t, state.ProjectFor(t), now)
		}
	}

	var blocks []schedulingDomain.TimeBlock
	var allocations []schedulingDomain.Allocation
	for _, t := range e.ReorderTasksByPriority(state.Tasks, now) {
		if !t.Status().IsActive() {
			continue
		}
		alloc := e.core.ScheduleTask(t, state.ProjectFor(t), blocks, state.Events, now)
		blocks = append(blocks, alloc.Blocks...)
		allocations = append(allocations, alloc)
	}

	schedulingDomain.SortBlocks(blocks)
	state.Blocks = blocks
	return allocations
}

func effectiveScore(t *task.Task, now time.Time) int {
	return t.Priority().Score() + DeadlineBonus(t, now)
}
