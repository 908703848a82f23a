package services

import (
	"cmp"
	"slices"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
)

const (
	maxOverdueBoost = 50.0
	criticalScore   = 80
	highScore       = 60
	criticalHours   = 72
	highHours       = 24
)

// OverdueResult is the outcome of one overdue pass.
type OverdueResult struct {
	Changes     []schedulingDomain.OverdueChange
	Allocations []schedulingDomain.Allocation
}

// OverdueRescheduler moves past-due tasks to new due dates by tier and
// schedules them again.
type OverdueRescheduler struct {
	core *SchedulerCore
}

// NewOverdueRescheduler creates a rescheduler scheduling through core.
func NewOverdueRescheduler(core *SchedulerCore) *OverdueRescheduler {
	return &OverdueRescheduler{core: core}
}

// Run reschedules every overdue task in state, most pressing first. When
// placeBlocks is false only due dates move.
func (r *OverdueRescheduler) Run(state *schedulingDomain.SchedulerState, now time.Time, placeBlocks bool) OverdueResult {
	var overdue []*task.Task
	for _, t := range state.Tasks {
		if t.IsOverdue(now) {
			r.core.RefreshPriority(t, state.ProjectFor(t), now)
			overdue = append(overdue, t)
		}
	}
	slices.SortStableFunc(overdue, func(a, b *task.Task) int {
		return cmp.Compare(overdueWeight(b, now), overdueWeight(a, now))
	})

	var result OverdueResult
	for _, t := range overdue {
		hours := hoursOverdue(t, now)
		score := t.Priority().Score()
		tier, newDue := OverdueTierFor(score, hours, t.EstimatedMinutes(), now)
		previous := *t.DueDate()

		t.RescheduleDue(newDue, tier.String(), now)
		result.Changes = append(result.Changes, schedulingDomain.OverdueChange{
			TaskID:       t.ID(),
			Title:        t.Title(),
			Score:        score,
			HoursOverdue: hours,
			PreviousDue:  previous,
			NewDue:       *t.DueDate(),
			Tier:         tier,
		})

		state.Blocks = state.WithoutTaskBlocks(t.ID())
		if !placeBlocks || !t.Status().IsActive() {
			continue
		}
		alloc := r.core.ScheduleTask(t, state.ProjectFor(t), state.Blocks, state.Events, now)
		state.Blocks = append(state.Blocks, alloc.Blocks...)
		result.Allocations = append(result.Allocations, alloc)
	}
	schedulingDomain.SortBlocks(state.Blocks)
	return result
}

// OverdueTierFor picks the tier and new due date for an overdue task.
func OverdueTierFor(score int, hoursOverdue float64, estimatedMinutes int, now time.Time) (schedulingDomain.OverdueTier, time.Time) {
	switch {
	case score >= criticalScore || hoursOverdue >= criticalHours:
		return schedulingDomain.TierCritical, now.Add(6 * time.Hour)
	case score >= highScore || hoursOverdue >= highHours:
		return schedulingDomain.TierHigh, now.Add(24 * time.Hour)
	default:
		return schedulingDomain.TierStandard, now.Add(time.Duration(estimatedMinutes)*time.Minute + 48*time.Hour)
	}
}

func overdueWeight(t *task.Task, now time.Time) float64 {
	return float64(t.Priority().Score()) + min(hoursOverdue(t, now)*2, maxOverdueBoost)
}

func hoursOverdue(t *task.Task, now time.Time) float64 {
	if t.DueDate() == nil {
		return 0
	}
	return now.Sub(*t.DueDate()).Hours()
}
