package services

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverdueTierFor(t *testing.T) {
	tests := []struct {
		name    string
		score   int
		hours   float64
		minutes int
		tier    schedulingDomain.OverdueTier
		due     time.Time
	}{
		{"high score", 85, 1, 30, schedulingDomain.TierCritical, monday.Add(6 * time.Hour)},
		{"three days late", 10, 72, 30, schedulingDomain.TierCritical, monday.Add(6 * time.Hour)},
		{"medium score", 60, 1, 30, schedulingDomain.TierHigh, monday.Add(24 * time.Hour)},
		{"a day late", 10, 24, 30, schedulingDomain.TierHigh, monday.Add(24 * time.Hour)},
		{"standard", 59, 23.5, 90, schedulingDomain.TierStandard, monday.Add(90*time.Minute + 48*time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, due := OverdueTierFor(tt.score, tt.hours, tt.minutes, monday)
			assert.Equal(t, tt.tier, tier)
			assert.Equal(t, tt.due, due)
		})
	}
}

func TestOverdueRescheduler_Run(t *testing.T) {
	prefs := schedulingDomain.DefaultPreferences()
	now := at(2, 10, 0)

	t.Run("critical task moves to six hours out", func(t *testing.T) {
		tk := newTask(t, "tax filing", 60, withLock(85), withDue(now.Add(-100*time.Hour)), withTags(task.TagOverdue))
		previous := *tk.DueDate()
		stale := newBlock(t, tk.ID(), at(1, 9, 0), at(1, 10, 0))
		state := &schedulingDomain.SchedulerState{
			Tasks:       []*task.Task{tk},
			Blocks:      []schedulingDomain.TimeBlock{stale},
			Preferences: prefs,
		}

		result := NewOverdueRescheduler(NewSchedulerCore(nil, prefs)).Run(state, now, true)

		require.Len(t, result.Changes, 1)
		change := result.Changes[0]
		assert.Equal(t, schedulingDomain.TierCritical, change.Tier)
		assert.Equal(t, now.Add(6*time.Hour), change.NewDue)
		assert.Equal(t, previous, change.PreviousDue)
		assert.InDelta(t, 100, change.HoursOverdue, 0.001)
		assert.Equal(t, 85, change.Score)

		assert.Equal(t, now.Add(6*time.Hour), *tk.DueDate())
		assert.False(t, tk.HasTag(task.TagOverdue))
		assert.True(t, tk.HasTag(task.TagRescheduled))

		var keys []string
		for _, e := range tk.DomainEvents() {
			keys = append(keys, e.RoutingKey())
		}
		assert.Contains(t, keys, task.RoutingKeyRescheduled)

		require.Len(t, result.Allocations, 1)
		for _, b := range state.Blocks {
			assert.NotEqual(t, stale.ID(), b.ID())
			assert.False(t, b.Start().Before(now))
		}
		assert.NotEmpty(t, state.BlocksForTask(tk.ID()))
	})

	t.Run("most pressing first", func(t *testing.T) {
		mild := newTask(t, "mild", 30, withLock(30), withDue(now.Add(-2*time.Hour)))
		severe := newTask(t, "severe", 30, withLock(30), withDue(now.Add(-30*time.Hour)))
		state := &schedulingDomain.SchedulerState{Tasks: []*task.Task{mild, severe}, Preferences: prefs}

		result := NewOverdueRescheduler(NewSchedulerCore(nil, prefs)).Run(state, now, true)

		require.Len(t, result.Changes, 2)
		assert.Equal(t, severe.ID(), result.Changes[0].TaskID)
		assert.Equal(t, schedulingDomain.TierHigh, result.Changes[0].Tier)
		assert.Equal(t, schedulingDomain.TierStandard, result.Changes[1].Tier)
		assertNoOverlap(t, state.Blocks, nil)
	})

	t.Run("completed and future tasks untouched", func(t *testing.T) {
		done := newTask(t, "done", 30, withDue(now.Add(-48*time.Hour)))
		require.NoError(t, done.Complete(now))
		future := newTask(t, "future", 30, withDue(now.Add(48*time.Hour)))
		state := &schedulingDomain.SchedulerState{Tasks: []*task.Task{done, future}, Preferences: prefs}

		result := NewOverdueRescheduler(NewSchedulerCore(nil, prefs)).Run(state, now, true)

		assert.Empty(t, result.Changes)
		assert.Equal(t, now.Add(-48*time.Hour), *done.DueDate())
	})

	t.Run("due dates only", func(t *testing.T) {
		tk := newTask(t, "late", 30, withDue(now.Add(-3*time.Hour)))
		state := &schedulingDomain.SchedulerState{Tasks: []*task.Task{tk}, Preferences: prefs}

		result := NewOverdueRescheduler(NewSchedulerCore(nil, prefs)).Run(state, now, false)

		require.Len(t, result.Changes, 1)
		assert.Empty(t, result.Allocations)
		assert.Empty(t, state.Blocks)
		assert.True(t, tk.DueDate().After(now))
	})
}
