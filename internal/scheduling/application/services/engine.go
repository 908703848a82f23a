package services

import (
	"errors"
	"time"

	productivityServices "github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

// Engine is the single entry point of the scheduler. Recompute has no side
// effects outside the state it returns; the current time is the trigger's.
type Engine struct {
	priorities *productivityServices.PriorityEngine
}

// NewEngine creates an engine. A nil priority engine gets the default one.
func NewEngine(priorities *productivityServices.PriorityEngine) *Engine {
	if priorities == nil {
		priorities = productivityServices.NewPriorityEngine()
	}
	return &Engine{priorities: priorities}
}

// Recompute applies trigger to a copy of in and returns the new state with a
// report of what changed. The input state is never modified.
func (e *Engine) Recompute(in schedulingDomain.SchedulerState, trigger schedulingDomain.Trigger) (schedulingDomain.SchedulerState, schedulingDomain.Report) {
	state := in.Clone()
	now := trigger.At()
	prefs := state.Preferences
	loc := prefs.Location()
	core := NewSchedulerCore(e.priorities, prefs)
	manual := prefs.Scheduling.ManualOnly

	report := schedulingDomain.Report{
		Trigger:      trigger.Kind(),
		At:           now,
		BlocksBefore: len(in.Blocks),
	}

	switch tr := trigger.(type) {
	case schedulingDomain.Created:
		t := state.Task(tr.TaskID)
		if t == nil {
			report.Skipped = "unknown task"
			break
		}
		state.Blocks = state.WithoutTaskBlocks(t.ID())
		if manual || !t.Status().IsActive() {
			core.RefreshPriority(t, state.ProjectFor(t), now)
			break
		}
		alloc := core.ScheduleTask(t, state.ProjectFor(t), state.Blocks, state.Events, now)
		state.Blocks = append(state.Blocks, alloc.Blocks...)
		schedulingDomain.SortBlocks(state.Blocks)
		report.AddAllocation(alloc)

	case schedulingDomain.Locked:
		t := state.Task(tr.TaskID)
		if t == nil {
			report.Skipped = "unknown task"
			break
		}
		if lock := t.LockedPriority(); lock == nil || lock.Score != clampLock(tr.Score) || lock.Reason != tr.Reason {
			// A completed task keeps its last priority.
			if err := t.LockPriority(tr.Score, tr.Reason, tr.By, now); err != nil && !errors.Is(err, task.ErrTaskCompleted) {
				report.Skipped = err.Error()
				break
			}
		}
		e.rebuild(&state, &report, core, now)

	case schedulingDomain.Unlocked:
		t := state.Task(tr.TaskID)
		if t == nil {
			report.Skipped = "unknown task"
			break
		}
		if t.IsPriorityLocked() {
			_ = t.UnlockPriority(now)
		}
		e.rebuild(&state, &report, core, now)

	case schedulingDomain.Completed:
		t := state.Task(tr.TaskID)
		if t == nil {
			report.Skipped = "unknown task"
			break
		}
		if !t.IsCompleted() {
			_ = t.Complete(now)
		}
		state.Blocks = state.WithoutTaskBlocks(t.ID())

	case schedulingDomain.CalendarSynced:
		report.DetectedConflicts = DetectSchedulingConflicts(state.Blocks, state.Events, loc)
		e.rebuild(&state, &report, core, now)

	case schedulingDomain.Tick:
		if !prefs.Scheduling.AutoReschedule {
			report.Skipped = "auto reschedule disabled"
			break
		}
		result := NewOverdueRescheduler(core).Run(&state, now, !manual)
		report.OverdueChanges = result.Changes
		for _, a := range result.Allocations {
			report.AddAllocation(a)
		}

	case schedulingDomain.Rebuild:
		e.rebuild(&state, &report, core, now)
	}

	report.Conflicts = DetectSchedulingConflicts(state.Blocks, state.Events, loc)
	report.BlocksAfter = len(state.Blocks)
	return state, report
}

// rebuild refreshes every priority and regenerates the whole block set. In
// manual-only mode the block set is emptied.
func (e *Engine) rebuild(state *schedulingDomain.SchedulerState, report *schedulingDomain.Report, core *SchedulerCore, now time.Time) {
	report.Rebuilt = true
	if state.Preferences.Scheduling.ManualOnly {
		for _, t := range state.Tasks {
			if !t.IsCompleted() {
				core.RefreshPriority(t, state.ProjectFor(t), now)
			}
		}
		state.Blocks = nil
		return
	}
	for _, a := range NewReprioritizationEngine(core).RescheduleAllTasks(state, now) {
		report.AddAllocation(a)
	}
}

func clampLock(score int) int {
	return max(task.MinLockedScore, min(score, task.MaxLockedScore))
}
