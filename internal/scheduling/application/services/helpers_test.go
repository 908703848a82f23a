package services

import (
	"testing"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	userID = uuid.MustParse("7d1f5a3e-0c2b-4b6e-9a57-1f0e2d3c4b5a")
	// monday is 2026-03-02 08:00 UTC, an hour before the working window.
	monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

type taskOpt func(*testing.T, *task.Task)

func withDeepWork() taskOpt {
	return func(_ *testing.T, tk *task.Task) { tk.SetWorkMode(vo.WorkModeDeepWork, monday) }
}

func withDue(due time.Time) taskOpt {
	return func(t *testing.T, tk *task.Task) { require.NoError(t, tk.SetDueDate(&due, monday.Add(-200*time.Hour))) }
}

func withTags(tags ...string) taskOpt {
	return func(_ *testing.T, tk *task.Task) { tk.SetTags(tags, monday) }
}

func withLock(score int) taskOpt {
	return func(t *testing.T, tk *task.Task) { require.NoError(t, tk.LockPriority(score, "pinned", "tester", monday)) }
}

func newTask(t *testing.T, title string, minutes int, opts ...taskOpt) *task.Task {
	t.Helper()
	d, err := vo.NewDuration(minutes)
	require.NoError(t, err)
	tk, err := task.NewTask(userID, title, d, monday.Add(-240*time.Hour))
	require.NoError(t, err)
	for _, opt := range opts {
		opt(t, tk)
	}
	tk.ClearDomainEvents()
	return tk
}

func newEvent(t *testing.T, title string, start, end time.Time) *calendarDomain.Event {
	t.Helper()
	e, err := calendarDomain.NewEvent(userID, calendarDomain.SourceGoogle, "", title, start, end, monday)
	require.NoError(t, err)
	return e
}

func newBlock(t *testing.T, taskID uuid.UUID, start, end time.Time) schedulingDomain.TimeBlock {
	t.Helper()
	b, err := schedulingDomain.NewTimeBlock(schedulingDomain.BlockSpec{
		UserID: userID,
		TaskID: taskID,
		Title:  "existing",
		Start:  start,
		End:    end,
	}, monday)
	require.NoError(t, err)
	return b
}

// busyWeekdays books every weekday between first and last from 09:00 to
// freeFrom, leaving freeFrom to 17:00 open.
func busyWeekdays(t *testing.T, first, last int, freeFromHour int) []*calendarDomain.Event {
	t.Helper()
	var events []*calendarDomain.Event
	for day := first; day <= last; day++ {
		start := at(day, 9, 0)
		if wd := start.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		events = append(events, newEvent(t, "meetings", start, at(day, freeFromHour, 0)))
	}
	return events
}

func assertNoOverlap(t *testing.T, blocks []schedulingDomain.TimeBlock, events []*calendarDomain.Event) {
	t.Helper()
	for i, a := range blocks {
		for _, b := range blocks[i+1:] {
			require.Falsef(t, a.OverlapsWith(b), "blocks %s and %s overlap", a.Start(), b.Start())
		}
		for _, e := range events {
			require.Falsef(t, a.Overlaps(e.Start(), e.End()), "block %s overlaps event %q", a.Start(), e.Title())
		}
	}
}
