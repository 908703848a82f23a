package services

import (
	"testing"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerCore_ScheduleTask_DeepWork(t *testing.T) {
	prefs := schedulingDomain.DefaultPreferences()
	core := NewSchedulerCore(nil, prefs)

	t.Run("short estimate is raised to the minimum", func(t *testing.T) {
		tk := newTask(t, "architecture sketch", 30, withDeepWork())

		alloc := core.ScheduleTask(tk, nil, nil, nil, monday)

		require.Len(t, alloc.Blocks, 1)
		b := alloc.Blocks[0]
		assert.Equal(t, at(2, 9, 15), b.Start())
		assert.GreaterOrEqual(t, b.Minutes(), prefs.FocusBlocks.DeepWorkMinDuration)
		assert.Equal(t, schedulingDomain.BlockTypeDeepWork, b.Type())
		assert.False(t, b.IsFlexible())
		assert.Equal(t, 120, alloc.Requested)
		assert.Equal(t, 120, alloc.Allocated)
		assert.False(t, alloc.Partial())
	})

	t.Run("busy day moves to the next one", func(t *testing.T) {
		tk := newTask(t, "architecture sketch", 150, withDeepWork())
		events := []*calendarDomain.Event{newEvent(t, "offsite", at(2, 9, 0), at(2, 17, 0))}

		alloc := core.ScheduleTask(tk, nil, nil, events, monday)

		require.Len(t, alloc.Blocks, 1)
		assert.Equal(t, at(3, 9, 15), alloc.Blocks[0].Start())
		assert.Equal(t, 150, alloc.Allocated)
	})

	t.Run("higher minimum wins", func(t *testing.T) {
		p := prefs
		p.FocusBlocks.DeepWorkMinDuration = 180
		tk := newTask(t, "research", 60, withDeepWork())

		alloc := NewSchedulerCore(nil, p).ScheduleTask(tk, nil, nil, nil, monday)

		require.Len(t, alloc.Blocks, 1)
		assert.Equal(t, 180, alloc.Blocks[0].Minutes())
	})
}

func TestSchedulerCore_ScheduleTask(t *testing.T) {
	prefs := schedulingDomain.DefaultPreferences()
	core := NewSchedulerCore(nil, prefs)

	t.Run("immediate work takes the first slot today", func(t *testing.T) {
		tk := newTask(t, "fix outage", 60, withDue(at(2, 20, 0)), withTags(task.TagImportant))

		alloc := core.ScheduleTask(tk, nil, nil, nil, monday)

		assert.Equal(t, vo.TimePreferenceImmediate, tk.Priority().TimePreference())
		require.Len(t, alloc.Blocks, 1)
		assert.Equal(t, at(2, 9, 15), alloc.Blocks[0].Start())
		assert.Equal(t, at(2, 10, 15), alloc.Blocks[0].End())
	})

	t.Run("priority is refreshed", func(t *testing.T) {
		tk := newTask(t, "plain", 30)
		require.True(t, tk.Priority().IsZero())

		core.ScheduleTask(tk, nil, nil, nil, monday)

		assert.Equal(t, 50, tk.Priority().Score())
		assert.Equal(t, vo.QuadrantNotUrgentNotImportant, tk.Priority().Quadrant())
	})

	t.Run("existing blocks are avoided", func(t *testing.T) {
		other := newTask(t, "other", 60)
		existing := []schedulingDomain.TimeBlock{newBlock(t, other.ID(), at(2, 9, 0), at(2, 12, 0))}
		tk := newTask(t, "fix outage", 60, withDue(at(2, 20, 0)), withTags(task.TagImportant))

		alloc := core.ScheduleTask(tk, nil, existing, nil, monday)

		require.Len(t, alloc.Blocks, 1)
		assert.Equal(t, at(2, 12, 15), alloc.Blocks[0].Start())
		assertNoOverlap(t, append(existing, alloc.Blocks...), nil)
	})

	t.Run("fully booked week is under-scheduled", func(t *testing.T) {
		events := busyWeekdays(t, 2, 20, 15)
		tk := newTask(t, "quarterly plan", 600)

		alloc := core.ScheduleTask(tk, nil, nil, events, monday)

		assert.LessOrEqual(t, len(alloc.Blocks), 5)
		assert.Equal(t, 600, alloc.Requested)
		assert.Equal(t, 450, alloc.Allocated)
		assert.True(t, alloc.Partial())
		assert.Equal(t, 150, alloc.Missing())
		assertNoOverlap(t, alloc.Blocks, events)
	})
}

func TestTargetDate(t *testing.T) {
	tests := []struct {
		pref vo.TimePreference
		want time.Time
	}{
		{vo.TimePreferenceImmediate, monday.Add(2 * time.Hour)},
		{vo.TimePreferenceScheduled, monday.AddDate(0, 0, 1)},
		{vo.TimePreferenceDelegated, monday.AddDate(0, 0, 2)},
		{vo.TimePreferenceEliminated, monday.AddDate(0, 0, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.pref.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TargetDate(tt.pref, monday))
		})
	}
}

func TestFilterSlotsByPreference(t *testing.T) {
	slot := func(hour int) schedulingDomain.TimeSlot {
		return schedulingDomain.TimeSlot{Start: at(3, hour, 0), End: at(3, hour, 45)}
	}
	morning := []schedulingDomain.TimeSlot{slot(7), slot(9), slot(10), slot(14)}
	afternoonOnly := []schedulingDomain.TimeSlot{slot(12), slot(13), slot(15), slot(16)}
	lateOnly := []schedulingDomain.TimeSlot{slot(11), slot(12), slot(16)}

	tests := []struct {
		name  string
		slots []schedulingDomain.TimeSlot
		pref  vo.TimePreference
		want  []schedulingDomain.TimeSlot
	}{
		{"immediate takes first", morning, vo.TimePreferenceImmediate, morning[:1]},
		{"scheduled prefers morning", morning, vo.TimePreferenceScheduled, []schedulingDomain.TimeSlot{slot(9), slot(10)}},
		{"scheduled falls back to first two", afternoonOnly, vo.TimePreferenceScheduled, afternoonOnly[:2]},
		{"delegated prefers afternoon", afternoonOnly, vo.TimePreferenceDelegated, []schedulingDomain.TimeSlot{slot(13), slot(15)}},
		{"delegated falls back to all", lateOnly, vo.TimePreferenceDelegated, lateOnly},
		{"eliminated takes all", morning, vo.TimePreferenceEliminated, morning},
		{"empty", nil, vo.TimePreferenceImmediate, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterSlotsByPreference(tt.slots, tt.pref, time.UTC))
		})
	}
}
