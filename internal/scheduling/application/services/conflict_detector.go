package services

import (
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

// DetectSchedulingConflicts flags every block that overlaps an event falling
// on the block's calendar day in loc. It never moves anything.
func DetectSchedulingConflicts(
	blocks []schedulingDomain.TimeBlock,
	events []*calendarDomain.Event,
	loc *time.Location,
) []schedulingDomain.Conflict {
	if loc == nil {
		loc = time.UTC
	}

	var conflicts []schedulingDomain.Conflict
	for _, b := range blocks {
		dayStart, dayEnd := dayBounds(b.Start(), loc)
		for _, e := range events {
			if !e.Overlaps(dayStart, dayEnd) {
				continue
			}
			if !b.Overlaps(e.Start(), e.End()) {
				continue
			}
			conflicts = append(conflicts, schedulingDomain.Conflict{
				BlockID:    b.ID(),
				TaskID:     b.TaskID(),
				EventID:    e.ID(),
				EventTitle: e.Title(),
				Source:     e.Source(),
				BlockStart: b.Start(),
				BlockEnd:   b.End(),
				EventStart: e.Start(),
				EventEnd:   e.End(),
			})
		}
	}
	return conflicts
}

func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	d := t.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
