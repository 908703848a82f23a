package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	projectCommands "github.com/felixgeelhaar/cadence/internal/projects/application/commands"
	projectQueries "github.com/felixgeelhaar/cadence/internal/projects/application/queries"
	scheduleCommands "github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	scheduleQueries "github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// CalendarSyncer imports busy time from the configured calendar sources.
type CalendarSyncer interface {
	SyncAll(ctx context.Context, userID uuid.UUID) (*calendarApp.SyncReport, error)
	SyncSource(ctx context.Context, userID uuid.UUID, source calendarDomain.Source) (*calendarApp.SyncReport, error)
}

// App holds the CLI application dependencies.
type App struct {
	// Task Command Handlers
	CreateTaskHandler     *commands.CreateTaskHandler
	UpdateTaskHandler     *commands.UpdateTaskHandler
	CompleteTaskHandler   *commands.CompleteTaskHandler
	LockPriorityHandler   *commands.LockPriorityHandler
	UnlockPriorityHandler *commands.UnlockPriorityHandler

	// Task Query Handlers
	ListTasksHandler *queries.ListTasksHandler
	GetTaskHandler   *queries.GetTaskHandler

	// Project Handlers
	CreateProjectHandler       *projectCommands.CreateProjectHandler
	ChangeProjectStatusHandler *projectCommands.ChangeProjectStatusHandler
	ListProjectsHandler        *projectQueries.ListProjectsHandler

	// Schedule Handlers
	RecomputeHandler       *scheduleCommands.RecomputeHandler
	GetScheduleHandler     *scheduleQueries.GetScheduleHandler
	FindSlotsHandler       *scheduleQueries.FindSlotsHandler
	DetectConflictsHandler *scheduleQueries.DetectConflictsHandler

	// Calendar
	CalendarSyncer        CalendarSyncer
	AddManualEventHandler *calendarApp.AddManualEventHandler
	ListEventsHandler     *calendarApp.ListEventsHandler

	// Preferences
	Preferences        schedulingDomain.PreferencesRepository
	DefaultPreferences schedulingDomain.UserPreferences

	Clock    sharedDomain.Clock
	Location *time.Location

	// Current user context
	CurrentUserID uuid.UUID
}

// SetCurrentUserID sets the current user ID.
func (a *App) SetCurrentUserID(userID uuid.UUID) {
	a.CurrentUserID = userID
}

// Now returns the current time in the configured timezone.
func (a *App) Now() time.Time {
	clock := a.Clock
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return clock.Now().In(a.location())
}

// ParseDate parses YYYY-MM-DD in the configured timezone. An empty value
// is today.
func (a *App) ParseDate(value string) (time.Time, error) {
	if value == "" {
		now := a.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	return time.ParseInLocation(DateLayout, value, a.location())
}

// ParseDateTime parses "YYYY-MM-DD HH:MM" or RFC 3339 in the configured
// timezone.
func (a *App) ParseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(DateTimeLayout, value, a.location())
}

// ParseDue parses a due date. A bare date means the end of that day.
func (a *App) ParseDue(value string) (*time.Time, error) {
	if strings.Contains(value, ":") {
		t, err := a.ParseDateTime(value)
		if err != nil {
			return nil, fmt.Errorf("invalid due date format (use YYYY-MM-DD or \"YYYY-MM-DD HH:MM\"): %w", err)
		}
		return &t, nil
	}
	day, err := time.ParseInLocation(DateLayout, value, a.location())
	if err != nil {
		return nil, fmt.Errorf("invalid due date format (use YYYY-MM-DD or \"YYYY-MM-DD HH:MM\"): %w", err)
	}
	end := day.Add(24*time.Hour - time.Minute)
	return &end, nil
}

// ResolveTaskID accepts a full task ID or a unique prefix of one.
func (a *App) ResolveTaskID(ctx context.Context, value string) (uuid.UUID, error) {
	if id, err := uuid.Parse(value); err == nil {
		return id, nil
	}
	prefix := strings.ToLower(strings.TrimSpace(value))
	if len(prefix) < 4 {
		return uuid.Nil, fmt.Errorf("invalid task ID %q: use the full ID or at least 4 characters", value)
	}
	if a.ListTasksHandler == nil {
		return uuid.Nil, ErrNotInitialized
	}

	tasks, err := a.ListTasksHandler.Handle(ctx, queries.ListTasksQuery{UserID: a.CurrentUserID, Status: "all"})
	if err != nil {
		return uuid.Nil, err
	}
	var matches []uuid.UUID
	for _, t := range tasks {
		if strings.HasPrefix(t.ID.String(), prefix) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("no task matches %q", value)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%d tasks match %q, use more characters", len(matches), value)
	}
}

// UserPreferences returns the stored preferences of the current user, or the
// configured defaults.
func (a *App) UserPreferences(ctx context.Context) (schedulingDomain.UserPreferences, error) {
	return schedulingDomain.LoadPreferences(ctx, a.Preferences, a.CurrentUserID, a.DefaultPreferences)
}

func (a *App) location() *time.Location {
	if a.Location == nil {
		return time.UTC
	}
	return a.Location
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
