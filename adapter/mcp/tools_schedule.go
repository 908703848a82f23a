package mcp

import (
	"context"
	"fmt"
	"time"

	scheduleCommands "github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	scheduleQueries "github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/mcp-go"
	"github.com/google/uuid"
)

type scheduleDateInput struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD, default today
}

type scheduleWeekInput struct {
	Offset int `json:"offset,omitempty"` // weeks from the current one
}

type scheduleSlotsInput struct {
	Date     string `json:"date,omitempty"`
	Minutes  int    `json:"minutes,omitempty"`
	DeepWork bool   `json:"deep_work,omitempty"`
}

type scheduleConflictsInput struct {
	Days int `json:"days,omitempty"`
}

type allocationOutput struct {
	TaskID    uuid.UUID `json:"task_id"`
	Title     string    `json:"title"`
	Requested int       `json:"requested_minutes"`
	Allocated int       `json:"allocated_minutes"`
}

type rescheduleOutput struct {
	TaskID       uuid.UUID `json:"task_id"`
	Title        string    `json:"title"`
	Tier         string    `json:"tier"`
	HoursOverdue float64   `json:"hours_overdue"`
	NewDue       time.Time `json:"new_due"`
}

type recomputeOutput struct {
	Trigger        string             `json:"trigger"`
	At             time.Time          `json:"at"`
	Skipped        string             `json:"skipped,omitempty"`
	Rebuilt        bool               `json:"rebuilt"`
	BlocksBefore   int                `json:"blocks_before"`
	BlocksAfter    int                `json:"blocks_after"`
	Allocations    []allocationOutput `json:"allocations,omitempty"`
	UnderScheduled []allocationOutput `json:"under_scheduled,omitempty"`
	Rescheduled    []rescheduleOutput `json:"rescheduled,omitempty"`
	Conflicts      int                `json:"conflicts"`
}

func registerScheduleTools(srv *mcp.Server, ts toolset) {
	srv.Tool("schedule.show").
		Description("Show the scheduled blocks for a day").
		Handler(ts.showSchedule)

	srv.Tool("schedule.week").
		Description("Show the scheduled blocks for each day of a week, Monday first").
		Handler(ts.showWeek)

	srv.Tool("schedule.slots").
		Description("Find free slots of at least the given minutes on a day, around blocks and calendar events").
		Handler(ts.findSlots)

	srv.Tool("schedule.conflicts").
		Description("List scheduled blocks that overlap calendar events in the next days").
		Handler(ts.detectConflicts)

	srv.Tool("schedule.recompute").
		Description("Rebuild the whole schedule from current tasks, events and preferences").
		Handler(func(ctx context.Context, input struct{}) (*recomputeOutput, error) {
			return ts.recompute(ctx, rebuildTrigger)
		})

	srv.Tool("schedule.tick").
		Description("Run the periodic tick: reschedule overdue tasks and repair conflicts").
		Handler(func(ctx context.Context, input struct{}) (*recomputeOutput, error) {
			return ts.recompute(ctx, tickTrigger)
		})
}

func (ts toolset) showSchedule(ctx context.Context, input scheduleDateInput) (*scheduleQueries.ScheduleDTO, error) {
	app := ts.app
	if app.GetScheduleHandler == nil {
		return nil, fmt.Errorf("schedule %w", errNoDatabase)
	}
	date, err := parseDate(app, input.Date)
	if err != nil {
		return nil, err
	}
	return app.GetScheduleHandler.Handle(ctx, scheduleQueries.GetScheduleQuery{UserID: app.CurrentUserID, Date: date})
}

func (ts toolset) showWeek(ctx context.Context, input scheduleWeekInput) ([]*scheduleQueries.ScheduleDTO, error) {
	app := ts.app
	if app.GetScheduleHandler == nil {
		return nil, fmt.Errorf("schedule %w", errNoDatabase)
	}
	today, err := parseDate(app, "")
	if err != nil {
		return nil, err
	}
	offset := (int(today.Weekday()) + 6) % 7
	start := today.AddDate(0, 0, -offset+7*input.Offset)

	days := make([]*scheduleQueries.ScheduleDTO, 0, 7)
	for i := range 7 {
		day, err := app.GetScheduleHandler.Handle(ctx, scheduleQueries.GetScheduleQuery{
			UserID: app.CurrentUserID,
			Date:   start.AddDate(0, 0, i),
		})
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

func (ts toolset) findSlots(ctx context.Context, input scheduleSlotsInput) ([]scheduleQueries.SlotDTO, error) {
	app := ts.app
	if app.FindSlotsHandler == nil {
		return nil, fmt.Errorf("slot search %w", errNoDatabase)
	}
	date, err := parseDate(app, input.Date)
	if err != nil {
		return nil, err
	}
	minutes := input.Minutes
	if minutes == 0 {
		minutes = 15
	}
	return app.FindSlotsHandler.Handle(ctx, scheduleQueries.FindSlotsQuery{
		UserID:   app.CurrentUserID,
		Date:     date,
		Minutes:  minutes,
		DeepWork: input.DeepWork,
	})
}

func (ts toolset) detectConflicts(ctx context.Context, input scheduleConflictsInput) (*scheduleQueries.ConflictsDTO, error) {
	app := ts.app
	if app.DetectConflictsHandler == nil {
		return nil, fmt.Errorf("conflict detection %w", errNoDatabase)
	}
	days := input.Days
	if days <= 0 {
		days = 7
	}
	from := app.Now()
	return app.DetectConflictsHandler.Handle(ctx, scheduleQueries.DetectConflictsQuery{
		UserID: app.CurrentUserID,
		From:   from,
		To:     from.AddDate(0, 0, days),
	})
}

func (ts toolset) recompute(ctx context.Context, newTrigger func(time.Time) schedulingDomain.Trigger) (*recomputeOutput, error) {
	app := ts.app
	if app.RecomputeHandler == nil {
		return nil, fmt.Errorf("recompute %w", errNoDatabase)
	}
	result, err := app.RecomputeHandler.Handle(ctx, scheduleCommands.RecomputeCommand{
		UserID:        app.CurrentUserID,
		Trigger:       newTrigger(app.Now()),
		CorrelationID: uuid.New(),
	})
	if err != nil {
		return nil, err
	}
	return toRecomputeOutput(result.Report), nil
}

func rebuildTrigger(now time.Time) schedulingDomain.Trigger { return schedulingDomain.Rebuild{Time: now} }

func tickTrigger(now time.Time) schedulingDomain.Trigger { return schedulingDomain.Tick{Time: now} }

func toRecomputeOutput(report schedulingDomain.Report) *recomputeOutput {
	out := &recomputeOutput{
		Trigger:      report.Trigger.String(),
		At:           report.At,
		Skipped:      report.Skipped,
		Rebuilt:      report.Rebuilt,
		BlocksBefore: report.BlocksBefore,
		BlocksAfter:  report.BlocksAfter,
		Conflicts:    len(report.Conflicts),
	}
	for _, a := range report.Allocations {
		out.Allocations = append(out.Allocations, toAllocationOutput(a))
	}
	for _, a := range report.UnderScheduled {
		out.UnderScheduled = append(out.UnderScheduled, toAllocationOutput(a))
	}
	for _, c := range report.OverdueChanges {
		out.Rescheduled = append(out.Rescheduled, rescheduleOutput{
			TaskID:       c.TaskID,
			Title:        c.Title,
			Tier:         string(c.Tier),
			HoursOverdue: c.HoursOverdue,
			NewDue:       c.NewDue,
		})
	}
	return out
}

func toAllocationOutput(a schedulingDomain.Allocation) allocationOutput {
	return allocationOutput{TaskID: a.TaskID, Title: a.Title, Requested: a.Requested, Allocated: a.Allocated}
}
