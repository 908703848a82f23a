package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	UserID   string
	Timezone string

	// Database
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string

	// Redis
	RedisURL         string
	ScheduleLockTTL  time.Duration
	ScheduleLockWait time.Duration
	SnapshotCacheTTL time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr     string
	OverdueTickInterval  time.Duration
	ReminderTickInterval time.Duration
	ReminderLead         time.Duration
	NotifyDebounce       time.Duration
	// SchedulerQueueEnabled consumes task events from RabbitMQ so writers
	// in other processes trigger recomputes here.
	SchedulerQueueEnabled bool

	// Calendar
	CalendarSyncEnabled    bool
	CalendarSyncInterval   time.Duration
	CalendarLookAheadDays  int
	CalendarConflictPolicy string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	GoogleCalendarID   string

	OutlookTenant       string
	OutlookClientID     string
	OutlookClientSecret string
	OutlookRefreshToken string
	OutlookCalendarID   string

	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string

	ICSPath             string
	CalendarPluginPaths []string

	// Preferences
	PreferencesFile string

	// MCP
	MCPAddr      string
	MCPAuthToken string

	// Circuit breaker
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	databaseURL := getEnv("DATABASE_URL", "")
	defaultDriver := "sqlite"
	if databaseURL != "" {
		defaultDriver = "postgres"
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		UserID:   getEnv("CADENCE_USER_ID", "00000000-0000-0000-0000-000000000001"),
		Timezone: getEnv("CADENCE_TIMEZONE", "UTC"),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", defaultDriver)),
		DatabaseURL:    databaseURL,
		SQLitePath:     getEnv("SQLITE_PATH", getDefaultSQLitePath()),

		RedisURL:         getEnv("REDIS_URL", ""),
		ScheduleLockTTL:  getDurationEnv("SCHEDULE_LOCK_TTL", 30*time.Second),
		ScheduleLockWait: getDurationEnv("SCHEDULE_LOCK_WAIT", 5*time.Second),
		SnapshotCacheTTL: getDurationEnv("SNAPSHOT_CACHE_TTL", 24*time.Hour),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr:     getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
		OverdueTickInterval:  getDurationEnv("OVERDUE_TICK_INTERVAL", 5*time.Minute),
		ReminderTickInterval: getDurationEnv("REMINDER_TICK_INTERVAL", time.Minute),
		ReminderLead:         getDurationEnv("REMINDER_LEAD", 10*time.Minute),
		NotifyDebounce:       getDurationEnv("NOTIFY_DEBOUNCE", 500*time.Millisecond),

		SchedulerQueueEnabled: getBoolEnv("SCHEDULER_QUEUE_ENABLED", false),

		CalendarSyncEnabled:    getBoolEnv("CALENDAR_SYNC_ENABLED", true),
		CalendarSyncInterval:   getDurationEnv("CALENDAR_SYNC_INTERVAL", 5*time.Minute),
		CalendarLookAheadDays:  getIntEnv("CALENDAR_LOOK_AHEAD_DAYS", 14),
		CalendarConflictPolicy: getEnv("CALENDAR_CONFLICT_POLICY", "notify-only"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
		GoogleCalendarID:   getEnv("GOOGLE_CALENDAR_ID", "primary"),

		OutlookTenant:       getEnv("OUTLOOK_TENANT", "common"),
		OutlookClientID:     getEnv("OUTLOOK_CLIENT_ID", ""),
		OutlookClientSecret: getEnv("OUTLOOK_CLIENT_SECRET", ""),
		OutlookRefreshToken: getEnv("OUTLOOK_REFRESH_TOKEN", ""),
		OutlookCalendarID:   getEnv("OUTLOOK_CALENDAR_ID", ""),

		CalDAVURL:          getEnv("CALDAV_URL", ""),
		CalDAVUsername:     getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:     getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendarPath: getEnv("CALDAV_CALENDAR_PATH", ""),

		ICSPath:             getEnv("ICS_PATH", ""),
		CalendarPluginPaths: getPathListEnv("CALENDAR_PLUGIN_PATHS"),

		PreferencesFile: getEnv("PREFERENCES_FILE", ""),

		MCPAddr:      getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),

		BreakerFailureThreshold: getIntEnv("BREAKER_FAILURE_THRESHOLD", 3),
		BreakerOpenTimeout:      getDurationEnv("BREAKER_OPEN_TIMEOUT", 5*time.Minute),
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// UsePostgres reports whether the Postgres driver is selected.
func (c *Config) UsePostgres() bool {
	return c.DatabaseDriver == "postgres"
}

// GoogleConfigured reports whether Google Calendar credentials are set.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleRefreshToken != ""
}

// OutlookConfigured reports whether Outlook credentials are set.
func (c *Config) OutlookConfigured() bool {
	return c.OutlookClientID != "" && c.OutlookRefreshToken != ""
}

// Location loads Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getPathListEnv splits a list on the OS path list separator.
func getPathListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var paths []string
	for _, p := range filepath.SplitList(value) {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func getDefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cadence", "cadence.db")
	}
	return filepath.Join(home, ".cadence", "cadence.db")
}
