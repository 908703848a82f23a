package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose cadence data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if deps.App == nil {
		return fmt.Errorf("app is required")
	}
	ts := toolset{app: deps.App}

	jsonResource(srv, "cadence://tasks", "Tasks", "Open tasks ordered by priority score",
		func(ctx context.Context) (any, error) {
			return ts.listTasks(ctx, taskListInput{})
		})

	jsonResource(srv, "cadence://tasks/overdue", "Overdue tasks", "Open tasks past their due date",
		func(ctx context.Context) (any, error) {
			return ts.listTasks(ctx, taskListInput{Overdue: true})
		})

	jsonResource(srv, "cadence://schedule/today", "Today's schedule", "Blocks scheduled for today",
		func(ctx context.Context) (any, error) {
			return ts.showSchedule(ctx, scheduleDateInput{})
		})

	jsonResource(srv, "cadence://schedule/week", "This week's schedule", "Blocks scheduled for each day of the current week",
		func(ctx context.Context) (any, error) {
			return ts.showWeek(ctx, scheduleWeekInput{})
		})

	jsonResource(srv, "cadence://schedule/conflicts", "Conflicts", "Blocks overlapping calendar events in the next week",
		func(ctx context.Context) (any, error) {
			return ts.detectConflicts(ctx, scheduleConflictsInput{})
		})

	jsonResource(srv, "cadence://calendar/events", "Calendar events", "Imported calendar events for the next week",
		func(ctx context.Context) (any, error) {
			return ts.listEvents(ctx, calendarEventsInput{})
		})

	jsonResource(srv, "cadence://preferences", "Preferences", "Scheduling preferences in effect",
		func(ctx context.Context) (any, error) {
			return ts.app.UserPreferences(ctx)
		})

	return nil
}

func jsonResource(srv *mcp.Server, uri, name, description string, load func(ctx context.Context) (any, error)) {
	srv.Resource(uri).
		Name(name).
		Description(description).
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			value, err := load(ctx)
			if err != nil {
				return nil, err
			}
			data, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return nil, err
			}
			return &mcp.ResourceContent{
				URI:      uri,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})
}
