package services

import (
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	productivityServices "github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	projectDomain "github.com/felixgeelhaar/cadence/internal/projects/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

// SchedulerCore schedules a single task against the blocks already placed.
type SchedulerCore struct {
	priorities *productivityServices.PriorityEngine
	prefs      schedulingDomain.UserPreferences
}

// NewSchedulerCore creates a core for one user's preferences.
func NewSchedulerCore(priorities *productivityServices.PriorityEngine, prefs schedulingDomain.UserPreferences) *SchedulerCore {
	if priorities == nil {
		priorities = productivityServices.NewPriorityEngine()
	}
	return &SchedulerCore{priorities: priorities, prefs: prefs}
}

// Preferences returns the preferences the core schedules with.
func (c *SchedulerCore) Preferences() schedulingDomain.UserPreferences {
	return c.prefs
}

// RefreshPriority recomputes and stores the task's priority.
func (c *SchedulerCore) RefreshPriority(t *task.Task, project *projectDomain.Project, now time.Time) vo.Priority {
	p := c.priorities.ForTask(t, project, now)
	t.ApplyPriority(p)
	return p
}

// ScheduleTask refreshes the task's priority and places blocks for it. The
// returned allocation never overlaps blocks or events.
func (c *SchedulerCore) ScheduleTask(
	t *task.Task,
	project *projectDomain.Project,
	blocks []schedulingDomain.TimeBlock,
	events []*calendarDomain.Event,
	now time.Time,
) schedulingDomain.Allocation {
	priority := c.RefreshPriority(t, project, now)
	finder := NewTimeSlotFinder(c.prefs, blocks, events, now)

	alloc := schedulingDomain.Allocation{
		TaskID: t.ID(),
		Title:  t.Title(),
	}

	if t.WorkMode().IsDeepWork() {
		required := max(t.EstimatedMinutes(), c.prefs.DeepWorkMinimum())
		alloc.Requested = required
		alloc.Blocks = c.scheduleDeepWork(t, finder, required, now)
	} else {
		alloc.Requested = t.EstimatedMinutes()
		target := TargetDate(priority.TimePreference(), now)
		slots := finder.FindAvailableTimeSlots(target, alloc.Requested)
		candidates := FilterSlotsByPreference(slots, priority.TimePreference(), finder.Location())
		alloc.Blocks = NewBlockPacker(c.prefs, finder, now).
			CreateTimeBlocksForTask(t, alloc.Requested, candidates, false, target)
	}

	for _, b := range alloc.Blocks {
		alloc.Allocated += b.Minutes()
	}
	return alloc
}

func (c *SchedulerCore) scheduleDeepWork(t *task.Task, finder *TimeSlotFinder, required int, now time.Time) []schedulingDomain.TimeBlock {
	slots := finder.FindDeepWorkTimeSlots(now, required)
	if len(slots) == 0 {
		return finder.FindMultiDayDeepWorkSlots(t, now, required)
	}
	start := slots[0].Start
	b, err := schedulingDomain.NewTimeBlock(schedulingDomain.BlockSpec{
		UserID:       t.UserID(),
		TaskID:       t.ID(),
		Title:        t.Title(),
		Start:        start,
		End:          start.Add(time.Duration(required) * time.Minute),
		BufferBefore: int(deepWorkEdge / time.Minute),
		BufferAfter:  int(deepWorkEdge / time.Minute),
		Type:         schedulingDomain.BlockTypeDeepWork,
		Flexible:     false,
	}, now)
	if err != nil {
		return nil
	}
	return []schedulingDomain.TimeBlock{b}
}

// TargetDate is the day a task with the given time preference is aimed at.
func TargetDate(pref vo.TimePreference, now time.Time) time.Time {
	switch pref {
	case vo.TimePreferenceImmediate:
		return now.Add(2 * time.Hour)
	case vo.TimePreferenceScheduled:
		return now.AddDate(0, 0, 1)
	case vo.TimePreferenceDelegated:
		return now.AddDate(0, 0, 2)
	default:
		return now.AddDate(0, 0, 7)
	}
}

// FilterSlotsByPreference narrows slots to the ones a time preference favours.
// Immediate work takes the first slot. Scheduled work prefers a start between
// 08:00 and 11:00, otherwise the first two slots. Delegated work prefers
// 13:00 to 16:00, otherwise anything.
func FilterSlotsByPreference(slots []schedulingDomain.TimeSlot, pref vo.TimePreference, loc *time.Location) []schedulingDomain.TimeSlot {
	if len(slots) == 0 {
		return nil
	}
	switch pref {
	case vo.TimePreferenceImmediate:
		return slots[:1]
	case vo.TimePreferenceScheduled:
		if in := slotsStartingBetween(slots, 8, 11, loc); len(in) > 0 {
			return in
		}
		return slots[:min(2, len(slots))]
	case vo.TimePreferenceDelegated:
		if in := slotsStartingBetween(slots, 13, 16, loc); len(in) > 0 {
			return in
		}
		return slots
	default:
		return slots
	}
}

func slotsStartingBetween(slots []schedulingDomain.TimeSlot, fromHour, toHour int, loc *time.Location) []schedulingDomain.TimeSlot {
	var out []schedulingDomain.TimeSlot
	for _, s := range slots {
		if h := s.Start.In(loc).Hour(); h >= fromHour && h < toHour {
			out = append(out, s)
		}
	}
	return out
}
