package services

import (
	"testing"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockPacker_CreateTimeBlocksForTask(t *testing.T) {
	prefs := schedulingDomain.DefaultPreferences()
	finder := NewTimeSlotFinder(prefs, nil, nil, monday)
	packer := NewBlockPacker(prefs, finder, monday)

	t.Run("first candidate with room for buffers", func(t *testing.T) {
		tk := newTask(t, "triage inbox", 60)
		candidates := []schedulingDomain.TimeSlot{
			{Start: at(2, 9, 0), End: at(2, 10, 15)},
			{Start: at(2, 11, 0), End: at(2, 12, 30)},
		}

		blocks := packer.CreateTimeBlocksForTask(tk, 60, candidates, false, monday)

		require.Len(t, blocks, 1)
		b := blocks[0]
		assert.Equal(t, at(2, 11, 15), b.Start())
		assert.Equal(t, at(2, 12, 15), b.End())
		assert.Equal(t, 15, b.BufferBefore())
		assert.Equal(t, 15, b.BufferAfter())
		assert.Equal(t, tk.ID(), b.TaskID())
		assert.Equal(t, schedulingDomain.BlockTypeAdmin, b.Type())
	})

	t.Run("flexibility follows score", func(t *testing.T) {
		slot := []schedulingDomain.TimeSlot{{Start: at(2, 9, 0), End: at(2, 17, 0)}}

		low := newTask(t, "low", 30, withLock(40))
		high := newTask(t, "high", 30, withLock(90))
		core := NewSchedulerCore(nil, prefs)
		core.RefreshPriority(low, nil, monday)
		core.RefreshPriority(high, nil, monday)

		assert.True(t, packer.CreateTimeBlocksForTask(low, 30, slot, false, monday)[0].IsFlexible())
		assert.False(t, packer.CreateTimeBlocksForTask(high, 30, slot, false, monday)[0].IsFlexible())
		assert.False(t, packer.CreateTimeBlocksForTask(low, 30, slot, true, monday)[0].IsFlexible())
	})

	t.Run("falls back to splitting", func(t *testing.T) {
		tk := newTask(t, "migration", 200)

		blocks := packer.CreateTimeBlocksForTask(tk, 200, nil, false, monday)

		require.Len(t, blocks, 1)
		assert.Equal(t, at(2, 9, 15), blocks[0].Start())
		assert.Equal(t, 200, blocks[0].Minutes())
	})
}

func TestBlockPacker_SplitTaskAcrossDays(t *testing.T) {
	prefs := schedulingDomain.DefaultPreferences()

	t.Run("one chunk per day with lead buffer", func(t *testing.T) {
		events := busyWeekdays(t, 2, 13, 14)
		finder := NewTimeSlotFinder(prefs, nil, events, monday)
		tk := newTask(t, "report", 300)

		blocks := NewBlockPacker(prefs, finder, monday).SplitTaskAcrossDays(tk, 300, monday, false)

		require.Len(t, blocks, 2)
		assert.Equal(t, at(2, 14, 15), blocks[0].Start())
		assert.Equal(t, 150, blocks[0].Minutes())
		assert.Equal(t, at(3, 14, 15), blocks[1].Start())
		assert.Equal(t, 150, blocks[1].Minutes())
		assertNoOverlap(t, blocks, events)
	})

	t.Run("fully booked week stays partial", func(t *testing.T) {
		events := busyWeekdays(t, 2, 13, 15)
		finder := NewTimeSlotFinder(prefs, nil, events, monday)
		tk := newTask(t, "quarterly plan", 600)

		blocks := NewBlockPacker(prefs, finder, monday).SplitTaskAcrossDays(tk, 600, monday, false)

		require.Len(t, blocks, 5)
		total := 0
		for _, b := range blocks {
			total += b.Minutes()
			assert.Equal(t, 90, b.Minutes())
		}
		assert.Equal(t, 450, total)
		assertNoOverlap(t, blocks, events)
	})

	t.Run("nothing fits", func(t *testing.T) {
		var events []*calendarDomain.Event
		for day := 2; day <= 8; day++ {
			events = append(events, newEvent(t, "busy", at(day, 9, 0), at(day, 16, 30)))
		}
		finder := NewTimeSlotFinder(prefs, nil, events, monday)
		tk := newTask(t, "unplaceable", 120)

		assert.Empty(t, NewBlockPacker(prefs, finder, monday).SplitTaskAcrossDays(tk, 120, monday, false))
	})
}
