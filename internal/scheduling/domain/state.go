package domain

import (
	"slices"
	"strings"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	projectDomain "github.com/felixgeelhaar/cadence/internal/projects/domain"
	"github.com/google/uuid"
)

// SchedulerState is everything one recompute reads: a user's tasks, their
// projects, the current block set, the imported calendar and preferences.
type SchedulerState struct {
	UserID      uuid.UUID
	Tasks       []*task.Task
	Projects    map[uuid.UUID]*projectDomain.Project
	Blocks      []TimeBlock
	Events      []*calendarDomain.Event
	Preferences UserPreferences
}

// Task returns the task with id, or nil.
func (s SchedulerState) Task(id uuid.UUID) *task.Task {
	for _, t := range s.Tasks {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

// ProjectFor returns the project a task is linked to, or nil.
func (s SchedulerState) ProjectFor(t *task.Task) *projectDomain.Project {
	if t.ProjectID() == nil || s.Projects == nil {
		return nil
	}
	return s.Projects[*t.ProjectID()]
}

// BlocksForTask is the task's scheduled blocks, ordered by start.
func (s SchedulerState) BlocksForTask(id uuid.UUID) []TimeBlock {
	var out []TimeBlock
	for _, b := range s.Blocks {
		if b.TaskID() == id {
			out = append(out, b)
		}
	}
	SortBlocks(out)
	return out
}

// WithoutTaskBlocks returns a new block slice without the task's blocks.
func (s SchedulerState) WithoutTaskBlocks(id uuid.UUID) []TimeBlock {
	out := make([]TimeBlock, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		if b.TaskID() != id {
			out = append(out, b)
		}
	}
	return out
}

// Clone copies the state so a recompute never mutates its input. Tasks are
// deep copied; projects and events are read-only and shared.
func (s SchedulerState) Clone() SchedulerState {
	tasks := make([]*task.Task, len(s.Tasks))
	for i, t := range s.Tasks {
		tasks[i] = t.Clone()
	}
	prefs := s.Preferences
	prefs.WorkingHours.DaysOfWeek = slices.Clone(s.Preferences.WorkingHours.DaysOfWeek)
	return SchedulerState{
		UserID:      s.UserID,
		Tasks:       tasks,
		Projects:    s.Projects,
		Blocks:      slices.Clone(s.Blocks),
		Events:      slices.Clone(s.Events),
		Preferences: prefs,
	}
}

// SortBlocks orders blocks by start, then ID.
func SortBlocks(blocks []TimeBlock) {
	slices.SortStableFunc(blocks, func(a, b TimeBlock) int {
		if c := a.Start().Compare(b.Start()); c != 0 {
			return c
		}
		return strings.Compare(a.ID().String(), b.ID().String())
	})
}
