package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars unsets every variable Load reads.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"APP_ENV", "LOG_LEVEL", "CADENCE_USER_ID", "CADENCE_TIMEZONE",
		"DATABASE_DRIVER", "DATABASE_URL", "SQLITE_PATH",
		"REDIS_URL", "SCHEDULE_LOCK_TTL", "SCHEDULE_LOCK_WAIT", "SNAPSHOT_CACHE_TTL",
		"RABBITMQ_URL",
		"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
		"OUTBOX_STATS_INTERVAL", "OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL",
		"OUTBOX_PROCESSOR_ENABLED",
		"WORKER_HEALTH_ADDR", "OVERDUE_TICK_INTERVAL", "REMINDER_TICK_INTERVAL", "REMINDER_LEAD", "NOTIFY_DEBOUNCE",
		"CALENDAR_SYNC_ENABLED", "CALENDAR_SYNC_INTERVAL", "CALENDAR_LOOK_AHEAD_DAYS", "CALENDAR_CONFLICT_POLICY",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REFRESH_TOKEN", "GOOGLE_CALENDAR_ID",
		"OUTLOOK_TENANT", "OUTLOOK_CLIENT_ID", "OUTLOOK_CLIENT_SECRET", "OUTLOOK_REFRESH_TOKEN", "OUTLOOK_CALENDAR_ID",
		"CALDAV_URL", "CALDAV_USERNAME", "CALDAV_PASSWORD", "CALDAV_CALENDAR_PATH",
		"ICS_PATH", "CALENDAR_PLUGIN_PATHS", "PREFERENCES_FILE",
		"MCP_ADDR", "MCP_AUTH_TOKEN",
		"BREAKER_FAILURE_THRESHOLD", "BREAKER_OPEN_TIMEOUT",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", cfg.UserID)
	assert.Equal(t, time.UTC, cfg.Location())

	// SQLite is the default without a DATABASE_URL
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.False(t, cfg.UsePostgres())
	assert.Contains(t, cfg.SQLitePath, "cadence.db")

	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.ScheduleLockTTL)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.True(t, cfg.OutboxProcessorEnabled)

	assert.Equal(t, 5*time.Minute, cfg.OverdueTickInterval)
	assert.Equal(t, time.Minute, cfg.ReminderTickInterval)
	assert.Equal(t, 10*time.Minute, cfg.ReminderLead)

	assert.True(t, cfg.CalendarSyncEnabled)
	assert.Equal(t, 5*time.Minute, cfg.CalendarSyncInterval)
	assert.Equal(t, 14, cfg.CalendarLookAheadDays)
	assert.Equal(t, "notify-only", cfg.CalendarConflictPolicy)
	assert.False(t, cfg.GoogleConfigured())
	assert.False(t, cfg.OutlookConfigured())
	assert.Nil(t, cfg.CalendarPluginPaths)

	assert.Equal(t, 3, cfg.BreakerFailureThreshold)
	assert.Equal(t, 5*time.Minute, cfg.BreakerOpenTimeout)
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("CADENCE_TIMEZONE", "Europe/Berlin")
	t.Setenv("DATABASE_URL", "postgres://cadence@localhost/cadence")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("CALENDAR_LOOK_AHEAD_DAYS", "21")
	t.Setenv("CALENDAR_CONFLICT_POLICY", "auto-reschedule")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_REFRESH_TOKEN", "refresh")
	t.Setenv("CALENDAR_PLUGIN_PATHS", "/opt/a:/opt/b")
	t.Setenv("REMINDER_LEAD", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, 21, cfg.CalendarLookAheadDays)
	assert.Equal(t, "auto-reschedule", cfg.CalendarConflictPolicy)
	assert.True(t, cfg.GoogleConfigured())
	assert.Equal(t, []string{"/opt/a", "/opt/b"}, cfg.CalendarPluginPaths)
	assert.Equal(t, 5*time.Minute, cfg.ReminderLead)
}

func TestLoad_ExplicitDatabaseDriver(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATABASE_URL", "postgres://cadence@localhost/cadence")
	t.Setenv("DATABASE_DRIVER", "SQLite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
}

func TestConfig_Location_Invalid(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus"}

	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "100")
	t.Setenv("TEST_INVALID_INT", "not-a-number")
	t.Setenv("TEST_DUR", "10m")
	t.Setenv("TEST_BOOL", "FALSE")
	t.Setenv("TEST_EMPTY", "")

	assert.Equal(t, "default", getEnv("TEST_EMPTY", "default"))
	assert.Equal(t, 100, getIntEnv("TEST_INT", 42))
	assert.Equal(t, 42, getIntEnv("TEST_INVALID_INT", 42))
	assert.Equal(t, 10*time.Minute, getDurationEnv("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getDurationEnv("NON_EXISTENT_DUR", time.Second))
	assert.False(t, getBoolEnv("TEST_BOOL", true))
}

func TestGetPathListEnv(t *testing.T) {
	t.Setenv("TEST_PATHS", "/path1: /path2::/path3")

	assert.Nil(t, getPathListEnv("NON_EXISTENT_PATH"))
	assert.Equal(t, []string{"/path1", "/path2", "/path3"}, getPathListEnv("TEST_PATHS"))
}
