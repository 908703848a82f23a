package mcp

import (
	"context"
	"errors"
	"fmt"

	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type calendarSyncInput struct {
	Source string `json:"source,omitempty"` // google, outlook, caldav, manual, plugin; empty syncs all
}

type calendarAddInput struct {
	Title  string `json:"title" jsonschema:"required"`
	Date   string `json:"date" jsonschema:"required"` // YYYY-MM-DD
	Start  string `json:"start,omitempty"`            // HH:MM
	End    string `json:"end,omitempty"`              // HH:MM
	AllDay bool   `json:"all_day,omitempty"`
}

type calendarEventsInput struct {
	Days   int    `json:"days,omitempty"`
	Source string `json:"source,omitempty"`
}

type syncResultOutput struct {
	Source  string `json:"source"`
	Events  int    `json:"events"`
	Changed bool   `json:"changed"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

func registerCalendarTools(srv *mcp.Server, ts toolset) {
	srv.Tool("calendar.sync").
		Description("Import events from the configured calendar sources. The schedule is rebuilt when anything changed.").
		Handler(ts.syncCalendars)

	srv.Tool("calendar.add").
		Description("Add a manual busy period the scheduler must plan around").
		Handler(ts.addEvent)

	srv.Tool("calendar.events").
		Description("List imported calendar events for the next days").
		Handler(ts.listEvents)
}

func (ts toolset) syncCalendars(ctx context.Context, input calendarSyncInput) ([]syncResultOutput, error) {
	app := ts.app
	if app.CalendarSyncer == nil {
		return nil, errors.New("calendar sync not configured")
	}

	var (
		report *calendarApp.SyncReport
		err    error
	)
	if input.Source != "" {
		source, parseErr := calendarDomain.ParseSource(input.Source)
		if parseErr != nil {
			return nil, parseErr
		}
		report, err = app.CalendarSyncer.SyncSource(ctx, app.CurrentUserID, source)
	} else {
		report, err = app.CalendarSyncer.SyncAll(ctx, app.CurrentUserID)
	}
	if err != nil {
		return nil, err
	}

	results := make([]syncResultOutput, 0, len(report.Results))
	for _, r := range report.Results {
		out := syncResultOutput{Source: r.Source.String(), Events: r.Events, Changed: r.Changed, Skipped: r.Skipped}
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
		results = append(results, out)
	}
	return results, nil
}

func (ts toolset) addEvent(ctx context.Context, input calendarAddInput) (*calendarApp.EventDTO, error) {
	app := ts.app
	if app.AddManualEventHandler == nil {
		return nil, fmt.Errorf("manual events %w", errNoDatabase)
	}
	if input.Date == "" {
		return nil, errors.New("date is required")
	}
	date, err := parseDate(app, input.Date)
	if err != nil {
		return nil, err
	}

	start, end := date, date
	if !input.AllDay {
		if input.Start == "" || input.End == "" {
			return nil, errors.New("start and end are required unless all_day is set")
		}
		if start, err = parseTimeOnDate(date, input.Start); err != nil {
			return nil, err
		}
		if end, err = parseTimeOnDate(date, input.End); err != nil {
			return nil, err
		}
	}

	event, err := app.AddManualEventHandler.Handle(ctx, calendarApp.AddManualEventCommand{
		UserID:   app.CurrentUserID,
		Title:    input.Title,
		Start:    start,
		End:      end,
		AllDay:   input.AllDay,
		Location: date.Location(),
	})
	if err != nil {
		return nil, err
	}
	dto := calendarApp.ToEventDTO(event)
	return &dto, nil
}

func (ts toolset) listEvents(ctx context.Context, input calendarEventsInput) ([]calendarApp.EventDTO, error) {
	app := ts.app
	if app.ListEventsHandler == nil {
		return nil, fmt.Errorf("event listing %w", errNoDatabase)
	}
	days := input.Days
	if days <= 0 {
		days = 7
	}
	from := app.Now()
	return app.ListEventsHandler.Handle(ctx, calendarApp.ListEventsQuery{
		UserID: app.CurrentUserID,
		From:   from,
		To:     from.AddDate(0, 0, days),
		Source: input.Source,
	})
}
