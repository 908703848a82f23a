package services

import (
	"slices"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

const (
	// deepWorkEdge is trimmed from each side of a deep work slot.
	deepWorkEdge = 15 * time.Minute
	// deepWorkInteriorPad is the extra room an interior gap needs.
	deepWorkInteriorPad = 30
	// deepWorkTrailingPad is the extra room the gap before day end needs.
	deepWorkTrailingPad = 15

	maxDailyDeepWorkMinutes = 240
	multiDayHorizon         = 7
)

type gap struct {
	schedulingDomain.TimeSlot
	trailing bool
}

// TimeSlotFinder locates free time inside working hours, around existing
// blocks and calendar events. Nothing earlier than notBefore is offered.
type TimeSlotFinder struct {
	prefs     schedulingDomain.UserPreferences
	loc       *time.Location
	busy      []schedulingDomain.TimeSlot
	notBefore time.Time
}

// NewTimeSlotFinder builds a finder over the given occupancy.
func NewTimeSlotFinder(
	prefs schedulingDomain.UserPreferences,
	blocks []schedulingDomain.TimeBlock,
	events []*calendarDomain.Event,
	notBefore time.Time,
) *TimeSlotFinder {
	busy := make([]schedulingDomain.TimeSlot, 0, len(blocks)+len(events))
	for _, b := range blocks {
		busy = append(busy, schedulingDomain.TimeSlot{Start: b.Start(), End: b.End()})
	}
	for _, e := range events {
		busy = append(busy, schedulingDomain.TimeSlot{Start: e.Start(), End: e.End()})
	}
	slices.SortFunc(busy, func(a, b schedulingDomain.TimeSlot) int {
		return a.Start.Compare(b.Start)
	})

	return &TimeSlotFinder{
		prefs:     prefs,
		loc:       prefs.Location(),
		busy:      busy,
		notBefore: ceilMinute(notBefore),
	}
}

// FindAvailableTimeSlots returns the free gaps on date's working day that are
// at least minutes long, in start order.
func (f *TimeSlotFinder) FindAvailableTimeSlots(date time.Time, minutes int) []schedulingDomain.TimeSlot {
	need := time.Duration(minutes) * time.Minute
	var slots []schedulingDomain.TimeSlot
	for _, g := range f.gaps(date) {
		if g.Duration() >= need {
			slots = append(slots, g.TimeSlot)
		}
	}
	return slots
}

// FindDeepWorkTimeSlots returns gaps roomy enough for a deep work session of
// minMinutes. Interior gaps need 30 extra minutes, the gap running to the end
// of the day 15. Each returned slot is trimmed by 15 minutes on both sides.
func (f *TimeSlotFinder) FindDeepWorkTimeSlots(date time.Time, minMinutes int) []schedulingDomain.TimeSlot {
	var slots []schedulingDomain.TimeSlot
	for _, g := range f.gaps(date) {
		pad := deepWorkInteriorPad
		if g.trailing {
			pad = deepWorkTrailingPad
		}
		if g.Duration() < time.Duration(minMinutes+pad)*time.Minute {
			continue
		}
		slots = append(slots, schedulingDomain.TimeSlot{
			Start: g.Start.Add(deepWorkEdge),
			End:   g.End.Add(-deepWorkEdge),
		})
	}
	return slots
}

// FindMultiDayDeepWorkSlots spreads required minutes of deep work over up to
// seven calendar days starting at from. Each day takes at most 240 minutes and
// MaxDeepWorkBlocksPerDay blocks; chunks shorter than the deep work minimum are
// not placed.
func (f *TimeSlotFinder) FindMultiDayDeepWorkSlots(t *task.Task, from time.Time, required int) []schedulingDomain.TimeBlock {
	minChunk := f.prefs.DeepWorkMinimum()
	maxBlocks := f.prefs.FocusBlocks.MaxDeepWorkBlocksPerDay
	remaining := required
	day := f.midnight(from)

	var blocks []schedulingDomain.TimeBlock
	for i := 0; i < multiDayHorizon && remaining > 0; i++ {
		date := day.AddDate(0, 0, i)
		if f.prefs.SkipsDay(date.Weekday()) {
			continue
		}

		used, placed := 0, 0
		for _, slot := range f.FindDeepWorkTimeSlots(date, min(remaining, maxDailyDeepWorkMinutes)) {
			if remaining <= 0 || used >= maxDailyDeepWorkMinutes || (maxBlocks > 0 && placed >= maxBlocks) {
				break
			}
			chunk := min(remaining, slot.Minutes()-30, maxDailyDeepWorkMinutes-used)
			if chunk < minChunk {
				continue
			}
			b, err := schedulingDomain.NewTimeBlock(schedulingDomain.BlockSpec{
				UserID:       t.UserID(),
				TaskID:       t.ID(),
				Title:        t.Title(),
				Start:        slot.Start,
				End:          slot.Start.Add(time.Duration(chunk) * time.Minute),
				BufferBefore: int(deepWorkEdge / time.Minute),
				BufferAfter:  int(deepWorkEdge / time.Minute),
				Type:         schedulingDomain.BlockTypeDeepWork,
				Flexible:     false,
			}, f.notBefore)
			if err != nil {
				continue
			}
			blocks = append(blocks, b)
			remaining -= chunk
			used += chunk
			placed++
		}
	}
	return blocks
}

// Location is the timezone the finder reasons in.
func (f *TimeSlotFinder) Location() *time.Location {
	return f.loc
}

func (f *TimeSlotFinder) gaps(date time.Time) []gap {
	window, err := f.prefs.Window(date)
	if err != nil {
		return nil
	}
	if !f.prefs.IsWorkingDay(window.Start.Weekday()) {
		return nil
	}
	if f.notBefore.After(window.Start) {
		window.Start = f.notBefore
	}
	if !window.End.After(window.Start) {
		return nil
	}

	var out []gap
	cursor := window.Start
	for _, b := range f.busy {
		if !b.Start.Before(window.End) {
			break
		}
		if !b.End.After(cursor) {
			continue
		}
		if b.Start.After(cursor) {
			out = append(out, gap{TimeSlot: schedulingDomain.TimeSlot{Start: cursor, End: b.Start}})
		}
		cursor = b.End
		if !cursor.Before(window.End) {
			return out
		}
	}
	return append(out, gap{
		TimeSlot: schedulingDomain.TimeSlot{Start: cursor, End: window.End},
		trailing: true,
	})
}

func (f *TimeSlotFinder) midnight(t time.Time) time.Time {
	d := t.In(f.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, f.loc)
}

func ceilMinute(t time.Time) time.Time {
	if r := t.Truncate(time.Minute); !r.Equal(t) {
		return r.Add(time.Minute)
	}
	return t
}
