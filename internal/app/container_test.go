package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	scheduleQueries "github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "00000000-0000-0000-0000-000000000001"

var monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                 "test",
		UserID:                 testUserID,
		Timezone:               "UTC",
		DatabaseDriver:         "sqlite",
		SQLitePath:             filepath.Join(t.TempDir(), "cadence.db"),
		CalendarConflictPolicy: "notify-only",
		CalendarLookAheadDays:  14,
	}
}

func newTestContainer(t *testing.T, cfg *config.Config, opts ...Option) *Container {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts = append([]Option{WithClock(sharedDomain.FixedClock{At: monday})}, opts...)

	c, err := NewContainer(context.Background(), cfg, logger, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewContainer_SQLite(t *testing.T) {
	c := newTestContainer(t, testConfig(t))

	assert.Equal(t, database.DriverSQLite, c.Driver)
	assert.NotNil(t, c.SQLite)
	assert.Nil(t, c.DB)
	assert.Nil(t, c.RedisClient)
	assert.Nil(t, c.Dispatcher)
	assert.Same(t, c.Recompute, c.Sink)

	assert.NotNil(t, c.Repos.Tasks)
	assert.NotNil(t, c.Repos.Blocks)
	assert.NotNil(t, c.Repos.Events)
	assert.NotNil(t, c.CreateTask)
	assert.NotNil(t, c.GetSchedule)
	assert.NotNil(t, c.CalendarSync)
	assert.Empty(t, c.Importers.Sources())

	health := c.Health.Check(context.Background())
	assert.Equal(t, observability.HealthStatusHealthy, health["database"].Status)
	assert.Equal(t, observability.HealthStatusHealthy, health["outbox"].Status)
	assert.NotContains(t, health, "rabbitmq")
}

func TestNewContainer_InvalidUserID(t *testing.T) {
	cfg := testConfig(t)
	cfg.UserID = "me"

	_, err := NewContainer(context.Background(), cfg, nil)

	assert.Error(t, err)
}

func TestNewContainer_InvalidConflictPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.CalendarConflictPolicy = "ignore"

	_, err := NewContainer(context.Background(), cfg, nil)

	assert.ErrorIs(t, err, schedulingDomain.ErrInvalidConflictPolicy)
}

func TestNewContainer_PreferencesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.PreferencesFile = filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(cfg.PreferencesFile, []byte("working_hours:\n  start: \"08:00\"\n  end: \"12:00\"\n"), 0o600))

	c := newTestContainer(t, cfg)

	assert.Equal(t, "08:00", c.DefaultPreferences.WorkingHours.Start)
	assert.Equal(t, "12:00", c.DefaultPreferences.WorkingHours.End)
}

func TestNewContainer_ICSSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.ICSPath = filepath.Join(t.TempDir(), "busy.ics")

	c := newTestContainer(t, cfg)

	assert.Equal(t, []calendarDomain.Source{calendarDomain.SourceManual}, c.Importers.Sources())
}

func TestContainer_CreateTaskSchedulesBlocks(t *testing.T) {
	c := newTestContainer(t, testConfig(t))
	ctx := context.Background()

	result, err := c.CreateTask.Handle(ctx, commands.CreateTaskCommand{
		UserID:           c.UserID,
		Title:            "write quarterly report",
		EstimatedMinutes: 90,
	})
	require.NoError(t, err)

	schedule, err := c.GetSchedule.Handle(ctx, scheduleQueries.GetScheduleQuery{UserID: c.UserID, Date: monday})
	require.NoError(t, err)
	require.NotEmpty(t, schedule.Blocks)
	assert.Equal(t, result.TaskID, schedule.Blocks[0].TaskID)
	assert.Equal(t, 90, schedule.TotalMinutes)

	tasks, err := c.ListTasks.Handle(ctx, queries.ListTasksQuery{UserID: c.UserID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Positive(t, tasks[0].Score)
}

func TestContainer_ManualEventMovesBlocks(t *testing.T) {
	c := newTestContainer(t, testConfig(t))
	ctx := context.Background()

	_, err := c.CreateTask.Handle(ctx, commands.CreateTaskCommand{
		UserID:           c.UserID,
		Title:            "review contracts",
		EstimatedMinutes: 60,
	})
	require.NoError(t, err)

	event, err := c.AddManualEvent.Handle(ctx, calendarApp.AddManualEventCommand{
		UserID: c.UserID,
		Title:  "dentist",
		Start:  monday.Add(time.Hour),
		End:    monday.Add(4 * time.Hour),
	})
	require.NoError(t, err)

	schedule, err := c.GetSchedule.Handle(ctx, scheduleQueries.GetScheduleQuery{UserID: c.UserID, Date: monday})
	require.NoError(t, err)
	require.NotEmpty(t, schedule.Blocks)
	for _, b := range schedule.Blocks {
		assert.False(t, event.Overlaps(b.Start, b.End), "block %s overlaps the event", b.ID)
	}

	conflicts, err := c.DetectConflicts.Handle(ctx, scheduleQueries.DetectConflictsQuery{UserID: c.UserID})
	require.NoError(t, err)
	assert.Empty(t, conflicts.Conflicts)
}

func TestContainer_DispatcherQueuesTriggers(t *testing.T) {
	c := newTestContainer(t, testConfig(t), WithDispatcher(4))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NotNil(t, c.Dispatcher)
	assert.Same(t, c.Dispatcher, c.Sink)

	_, err := c.CreateTask.Handle(ctx, commands.CreateTaskCommand{
		UserID:           c.UserID,
		Title:            "plan offsite",
		EstimatedMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Dispatcher.Pending())

	done := make(chan error, 1)
	go func() { done <- c.Dispatcher.Run(ctx) }()
	require.Eventually(t, func() bool { return c.Dispatcher.Pending() == 0 }, 5*time.Second, 10*time.Millisecond)
	c.Dispatcher.Stop()
	require.NoError(t, <-done)

	blocks, err := c.Repos.Blocks.FindByUser(ctx, uuid.MustParse(testUserID))
	require.NoError(t, err)
	assert.NotEmpty(t, blocks)
}

func TestNewCLIApp(t *testing.T) {
	c := newTestContainer(t, testConfig(t))

	app := NewCLIApp(c)

	assert.Equal(t, c.UserID, app.CurrentUserID)
	assert.Same(t, c.Recompute, app.RecomputeHandler)
	assert.NotNil(t, app.CalendarSyncer)
	assert.NotNil(t, app.ListEventsHandler)
	assert.Equal(t, monday, app.Now())
}
