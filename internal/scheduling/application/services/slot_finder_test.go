package services

import (
	"testing"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSlotFinder_FindAvailableTimeSlots(t *testing.T) {
	prefs := schedulingDomain.DefaultPreferences()
	events := []*calendarDomain.Event{newEvent(t, "standup", at(2, 10, 0), at(2, 11, 0))}
	blocks := []schedulingDomain.TimeBlock{newBlock(t, uuid.New(), at(2, 13, 0), at(2, 14, 0))}

	t.Run("gaps around blocks and events", func(t *testing.T) {
		finder := NewTimeSlotFinder(prefs, blocks, events, monday)

		slots := finder.FindAvailableTimeSlots(monday, 30)

		require.Len(t, slots, 3)
		assert.Equal(t, at(2, 9, 0), slots[0].Start)
		assert.Equal(t, at(2, 10, 0), slots[0].End)
		assert.Equal(t, at(2, 11, 0), slots[1].Start)
		assert.Equal(t, at(2, 13, 0), slots[1].End)
		assert.Equal(t, at(2, 14, 0), slots[2].Start)
		assert.Equal(t, at(2, 17, 0), slots[2].End)
	})

	t.Run("short gaps are dropped", func(t *testing.T) {
		finder := NewTimeSlotFinder(prefs, blocks, events, monday)

		slots := finder.FindAvailableTimeSlots(monday, 90)

		require.Len(t, slots, 2)
		assert.Equal(t, at(2, 11, 0), slots[0].Start)
		assert.Equal(t, at(2, 14, 0), slots[1].Start)
	})

	t.Run("nothing before now", func(t *testing.T) {
		finder := NewTimeSlotFinder(prefs, blocks, events, at(2, 11, 20).Add(30*time.Second))

		slots := finder.FindAvailableTimeSlots(monday, 30)

		require.Len(t, slots, 2)
		assert.Equal(t, at(2, 11, 21), slots[0].Start)
	})

	t.Run("day over", func(t *testing.T) {
		finder := NewTimeSlotFinder(prefs, nil, nil, at(2, 18, 0))
		assert.Empty(t, finder.FindAvailableTimeSlots(monday, 30))
	})
}

func TestTimeSlotFinder_WorkingDays(t *testing.T) {
	saturday := at(7, 9, 0)

	t.Run("weekend skipped by default", func(t *testing.T) {
		finder := NewTimeSlotFinder(schedulingDomain.DefaultPreferences(), nil, nil, monday)
		assert.Empty(t, finder.FindAvailableTimeSlots(saturday, 30))
	})

	t.Run("weekend work enabled", func(t *testing.T) {
		prefs := schedulingDomain.DefaultPreferences()
		prefs.Scheduling.WeekendWork = true
		finder := NewTimeSlotFinder(prefs, nil, nil, monday)

		slots := finder.FindAvailableTimeSlots(saturday, 30)

		require.Len(t, slots, 1)
		assert.Equal(t, 480, slots[0].Minutes())
	})

	t.Run("all day event fills the window", func(t *testing.T) {
		holiday, err := calendarDomain.NewAllDayEvent(userID, calendarDomain.SourceManual, "", "holiday", monday, monday, time.UTC, monday)
		require.NoError(t, err)
		finder := NewTimeSlotFinder(schedulingDomain.DefaultPreferences(), nil, []*calendarDomain.Event{holiday}, monday)

		assert.Empty(t, finder.FindAvailableTimeSlots(monday, 15))
	})

	t.Run("window follows the timezone", func(t *testing.T) {
		prefs := schedulingDomain.DefaultPreferences()
		prefs.Timezone = "Europe/Berlin"
		finder := NewTimeSlotFinder(prefs, nil, nil, monday.Add(-24*time.Hour))

		slots := finder.FindAvailableTimeSlots(monday, 30)

		require.Len(t, slots, 1)
		assert.Equal(t, at(2, 8, 0), slots[0].Start.UTC())
		assert.Equal(t, at(2, 16, 0), slots[0].End.UTC())
	})
}

func TestTimeSlotFinder_FindDeepWorkTimeSlots(t *testing.T) {
	prefs := schedulingDomain.DefaultPreferences()

	t.Run("trailing gap needs fifteen extra minutes", func(t *testing.T) {
		events := []*calendarDomain.Event{newEvent(t, "review", at(2, 11, 0), at(2, 12, 0))}
		finder := NewTimeSlotFinder(prefs, nil, events, monday)

		slots := finder.FindDeepWorkTimeSlots(monday, 120)

		// 09:00-11:00 is interior and would need 150 minutes.
		require.Len(t, slots, 1)
		assert.Equal(t, at(2, 12, 15), slots[0].Start)
		assert.Equal(t, at(2, 16, 45), slots[0].End)
	})

	t.Run("interior gap needs thirty extra minutes", func(t *testing.T) {
		events := []*calendarDomain.Event{
			newEvent(t, "morning", at(2, 9, 0), at(2, 10, 0)),
			newEvent(t, "late", at(2, 12, 30), at(2, 17, 0)),
		}
		finder := NewTimeSlotFinder(prefs, nil, events, monday)

		slots := finder.FindDeepWorkTimeSlots(monday, 120)

		require.Len(t, slots, 1)
		assert.Equal(t, at(2, 10, 15), slots[0].Start)
		assert.Equal(t, at(2, 12, 15), slots[0].End)
		assert.Empty(t, finder.FindDeepWorkTimeSlots(monday, 121))
	})
}

func TestTimeSlotFinder_FindMultiDayDeepWorkSlots(t *testing.T) {
	prefs := schedulingDomain.DefaultPreferences()
	tk := newTask(t, "write design doc", 300, withDeepWork())

	t.Run("spreads over following days", func(t *testing.T) {
		events := []*calendarDomain.Event{newEvent(t, "offsite", at(2, 9, 0), at(2, 17, 0))}
		finder := NewTimeSlotFinder(prefs, nil, events, monday)

		blocks := finder.FindMultiDayDeepWorkSlots(tk, monday, 300)

		// Tuesday takes the daily cap; the 60 left fall below the minimum.
		require.Len(t, blocks, 1)
		assert.Equal(t, at(3, 9, 15), blocks[0].Start())
		assert.Equal(t, 240, blocks[0].Minutes())
		assert.Equal(t, schedulingDomain.BlockTypeDeepWork, blocks[0].Type())
		assert.False(t, blocks[0].IsFlexible())
	})

	t.Run("respects max blocks per day", func(t *testing.T) {
		p := prefs
		p.FocusBlocks.MaxDeepWorkBlocksPerDay = 1
		var events []*calendarDomain.Event
		for day := 2; day <= 6; day++ {
			events = append(events, newEvent(t, "lunch", at(day, 12, 0), at(day, 12, 30)))
		}
		finder := NewTimeSlotFinder(p, nil, events, monday)

		blocks := finder.FindMultiDayDeepWorkSlots(tk, monday, 360)

		// Monday fits 210 after lunch, Tuesday 120 before it; the last 30
		// fall below the minimum.
		require.Len(t, blocks, 2)
		assert.Equal(t, at(2, 12, 45), blocks[0].Start())
		assert.Equal(t, 210, blocks[0].Minutes())
		assert.Equal(t, at(3, 9, 15), blocks[1].Start())
		assert.Equal(t, 120, blocks[1].Minutes())
		for _, b := range blocks {
			assert.GreaterOrEqual(t, b.Minutes(), prefs.DeepWorkMinimum())
		}
		assertNoOverlap(t, blocks, events)
	})

	t.Run("skips weekends", func(t *testing.T) {
		friday := at(6, 8, 0)
		events := []*calendarDomain.Event{newEvent(t, "offsite", at(6, 9, 0), at(6, 17, 0))}
		finder := NewTimeSlotFinder(prefs, nil, events, friday)

		blocks := finder.FindMultiDayDeepWorkSlots(tk, friday, 200)

		require.Len(t, blocks, 1)
		assert.Equal(t, time.Monday, blocks[0].Start().Weekday())
		assert.Equal(t, 200, blocks[0].Minutes())
	})

	t.Run("weekend listed in working days", func(t *testing.T) {
		p := prefs
		p.WorkingHours.DaysOfWeek = []int{0, 1, 2, 3, 4, 5, 6}
		friday := at(6, 8, 0)
		events := []*calendarDomain.Event{newEvent(t, "offsite", at(6, 9, 0), at(6, 17, 0))}
		finder := NewTimeSlotFinder(p, nil, events, friday)

		single := finder.FindDeepWorkTimeSlots(at(7, 8, 0), 200)
		blocks := finder.FindMultiDayDeepWorkSlots(tk, friday, 200)

		require.NotEmpty(t, single)
		require.Len(t, blocks, 1)
		assert.Equal(t, time.Saturday, blocks[0].Start().Weekday())
		assert.Equal(t, single[0].Start, blocks[0].Start())
	})
}
