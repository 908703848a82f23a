package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	calendarWorkers "github.com/felixgeelhaar/cadence/internal/calendar/application/workers"
	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/oauth"
	calendarPlugin "github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/plugin"
	calendarSetup "github.com/felixgeelhaar/cadence/internal/calendar/setup"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	productivityServices "github.com/felixgeelhaar/cadence/internal/productivity/application/services"
	projectCommands "github.com/felixgeelhaar/cadence/internal/projects/application/commands"
	projectQueries "github.com/felixgeelhaar/cadence/internal/projects/application/queries"
	scheduleCommands "github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/dispatch"
	scheduleQueries "github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	schedulerServices "github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	scheduleSubs "github.com/felixgeelhaar/cadence/internal/scheduling/application/subscribers"
	scheduleWorkers "github.com/felixgeelhaar/cadence/internal/scheduling/application/workers"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/scheduling/infrastructure/prefsfile"
	"github.com/felixgeelhaar/cadence/internal/scheduling/infrastructure/redisstore"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/postgres"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const defaultMaxConns = 10

// Option customizes a Container.
type Option func(*options)

type options struct {
	dispatch bool
	capacity int
	clock    sharedDomain.Clock
	metrics  observability.Metrics
}

// WithDispatcher queues every trigger through a single-writer dispatcher
// instead of recomputing on the caller's goroutine. The caller runs it.
func WithDispatcher(capacity int) Option {
	return func(o *options) {
		o.dispatch = true
		o.capacity = capacity
	}
}

// WithClock overrides the system clock.
func WithClock(clock sharedDomain.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics observability.Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Clock    sharedDomain.Clock
	Metrics  observability.Metrics
	Health   *observability.HealthRegistry
	UserID   uuid.UUID
	Location *time.Location

	// Database
	Driver database.Driver
	DB     *pgxpool.Pool
	SQLite *sql.DB

	RedisClient *redis.Client

	Repos *Repositories

	// DefaultPreferences apply until the user stores their own.
	DefaultPreferences schedulingDomain.UserPreferences

	// Publishers
	EventPublisher eventbus.Publisher
	LocalBus       *eventbus.InProcessEventBus

	// Scheduling
	Engine          *schedulerServices.Engine
	Recompute       *scheduleCommands.RecomputeHandler
	Dispatcher      *dispatch.Dispatcher
	Sink            schedulingDomain.TriggerSink
	TaskSubscriber  *scheduleSubs.TaskSubscriber
	GetSchedule     *scheduleQueries.GetScheduleHandler
	FindSlots       *scheduleQueries.FindSlotsHandler
	DetectConflicts *scheduleQueries.DetectConflictsHandler

	// Task Command Handlers
	CreateTask     *commands.CreateTaskHandler
	UpdateTask     *commands.UpdateTaskHandler
	CompleteTask   *commands.CompleteTaskHandler
	LockPriority   *commands.LockPriorityHandler
	UnlockPriority *commands.UnlockPriorityHandler

	// Task Query Handlers
	ListTasks *queries.ListTasksHandler
	GetTask   *queries.GetTaskHandler

	// Projects
	CreateProject       *projectCommands.CreateProjectHandler
	ChangeProjectStatus *projectCommands.ChangeProjectStatusHandler
	ListProjects        *projectQueries.ListProjectsHandler

	// Calendar
	Importers      *calendarApp.ImporterRegistry
	PluginHost     *calendarPlugin.Host
	CalendarSync   *calendarApp.SyncService
	AddManualEvent *calendarApp.AddManualEventHandler
	ListEvents     *calendarApp.ListEventsHandler

	// Background processing, started by the worker.
	OutboxProcessor *outbox.Processor
	OverdueWorker   *scheduleWorkers.OverdueWorker
	ReminderWorker  *scheduleWorkers.ReminderWorker
	SyncWorker      *calendarWorkers.CalendarSyncWorker
}

// NewContainer connects the configured database and wires every handler.
// SQLite needs no external services; Redis and RabbitMQ are used when
// their URLs are set.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	o := options{clock: sharedDomain.SystemClock{}, metrics: observability.NoopMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid CADENCE_USER_ID %q: %w", cfg.UserID, err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Clock:    o.clock,
		Metrics:  o.metrics,
		Health:   observability.NewHealthRegistry(),
		UserID:   userID,
		Location: cfg.Location(),
	}

	if err := c.openDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.build(ctx, o); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) openDatabase(ctx context.Context) error {
	c.Driver = database.ParseDriver(c.Config.DatabaseDriver, c.Config.DatabaseURL)

	var factory *RepositoryFactory
	switch c.Driver {
	case database.DriverPostgres:
		pool, err := postgres.Open(ctx, c.Config.DatabaseURL, defaultMaxConns)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = pool
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, pool.Ping))
		factory = NewPostgresRepositoryFactory(pool)
		c.Logger.Info("connected to PostgreSQL")

	case database.DriverSQLite:
		db, err := sqlite.Open(ctx, c.Config.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		c.SQLite = db
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, db.PingContext))
		factory = NewSQLiteRepositoryFactory(db)
		c.Logger.Info("opened SQLite database", "path", c.Config.SQLitePath)

	default:
		return fmt.Errorf("unsupported driver: %s", c.Driver)
	}

	repos, err := factory.Build()
	if err != nil {
		c.Close()
		return err
	}
	c.Repos = repos
	return nil
}

func (c *Container) build(ctx context.Context, o options) error {
	cfg, logger := c.Config, c.Logger

	prefs, err := c.loadDefaultPreferences()
	if err != nil {
		return err
	}
	c.DefaultPreferences = prefs

	policy, err := schedulingDomain.ParseConflictPolicy(cfg.CalendarConflictPolicy)
	if err != nil {
		return fmt.Errorf("CALENDAR_CONFLICT_POLICY: %w", err)
	}

	lock, cache := c.connectRedis(ctx)

	if err := c.connectPublisher(); err != nil {
		return err
	}

	// Scheduling
	c.Engine = schedulerServices.NewEngine(productivityServices.NewPriorityEngine())
	c.Recompute = scheduleCommands.NewRecomputeHandler(scheduleCommands.RecomputeDeps{
		Tasks:              c.Repos.Tasks,
		Projects:           c.Repos.Projects,
		Blocks:             c.Repos.Blocks,
		Events:             c.Repos.Events,
		Preferences:        c.Repos.Preferences,
		Outbox:             c.Repos.Outbox,
		UnitOfWork:         c.Repos.UnitOfWork,
		Engine:             c.Engine,
		Lock:               lock,
		Cache:              cache,
		Metrics:            c.Metrics,
		Logger:             logger,
		DefaultPreferences: &c.DefaultPreferences,
		ConflictPolicy:     policy,
	})
	c.Sink = c.Recompute
	if o.dispatch {
		c.Dispatcher = dispatch.New(c.Recompute, o.capacity, c.Metrics, logger)
		c.Sink = c.Dispatcher
	}

	c.LocalBus = eventbus.NewInProcessEventBus(logger)
	c.TaskSubscriber = scheduleSubs.NewTaskSubscriber(c.Sink, c.Clock, logger)
	c.LocalBus.RegisterConsumer(c.TaskSubscriber)

	c.GetSchedule = scheduleQueries.NewGetScheduleHandler(c.Repos.Blocks, cache, c.Repos.Preferences, c.DefaultPreferences, c.Clock, logger)
	c.FindSlots = scheduleQueries.NewFindSlotsHandler(c.Repos.Blocks, c.Repos.Events, c.Repos.Preferences, c.DefaultPreferences, c.Clock)
	c.DetectConflicts = scheduleQueries.NewDetectConflictsHandler(c.Repos.Blocks, c.Repos.Events, c.Repos.Preferences, c.DefaultPreferences, policy, c.Clock)

	// Tasks
	store := commands.TaskStore{
		Tasks:      c.Repos.Tasks,
		Outbox:     c.Repos.Outbox,
		UnitOfWork: c.Repos.UnitOfWork,
		Publisher:  c.LocalBus,
		Clock:      c.Clock,
		Logger:     logger,
	}
	c.CreateTask = commands.NewCreateTaskHandler(store, c.Repos.Projects)
	c.UpdateTask = commands.NewUpdateTaskHandler(store)
	c.CompleteTask = commands.NewCompleteTaskHandler(store)
	c.LockPriority = commands.NewLockPriorityHandler(store)
	c.UnlockPriority = commands.NewUnlockPriorityHandler(store)
	c.ListTasks = queries.NewListTasksHandler(c.Repos.Tasks, c.Clock)
	c.GetTask = queries.NewGetTaskHandler(c.Repos.Tasks, c.Clock)

	// Projects
	c.CreateProject = projectCommands.NewCreateProjectHandler(c.Repos.Projects, c.Repos.UnitOfWork, c.Clock)
	c.ChangeProjectStatus = projectCommands.NewChangeProjectStatusHandler(c.Repos.Projects, c.Repos.UnitOfWork, c.Clock)
	c.ListProjects = projectQueries.NewListProjectsHandler(c.Repos.Projects)

	// Calendar
	c.buildCalendar()

	// Background processing
	c.OutboxProcessor = outbox.NewProcessor(c.Repos.Outbox, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        time.Duration(cfg.OutboxRetentionDays) * 24 * time.Hour,
		CleanupInterval:  cfg.OutboxCleanupInterval,
	}, logger)
	c.Health.Register("outbox", c.outboxHealth)
	users := []uuid.UUID{c.UserID}
	c.OverdueWorker = scheduleWorkers.NewOverdueWorker(c.Sink, users, cfg.OverdueTickInterval, c.Clock, logger)
	c.ReminderWorker = scheduleWorkers.NewReminderWorker(c.Repos.Blocks, c.Repos.Outbox, scheduleWorkers.ReminderConfig{
		Interval: cfg.ReminderTickInterval,
		Lead:     cfg.ReminderLead,
	}, c.Clock, c.Metrics, logger)
	if cfg.CalendarSyncEnabled {
		c.SyncWorker = calendarWorkers.NewCalendarSyncWorker(c.CalendarSync, users, cfg.CalendarSyncInterval, logger)
	}

	logger.Info("container ready",
		"driver", c.Driver,
		"user_id", c.UserID,
		"calendar_sources", len(c.Importers.Sources()),
		"redis", c.RedisClient != nil,
		"dispatch", c.Dispatcher != nil,
	)
	return nil
}

func (c *Container) buildCalendar() {
	cfg := c.Config
	importerConfig := calendarSetup.ImporterConfig{
		GoogleCalendarID:  cfg.GoogleCalendarID,
		OutlookCalendarID: cfg.OutlookCalendarID,
		CalDAV: calendarSetup.CalDAVConfig{
			URL:          cfg.CalDAVURL,
			Username:     cfg.CalDAVUsername,
			Password:     cfg.CalDAVPassword,
			CalendarPath: cfg.CalDAVCalendarPath,
		},
		ICSPath:     cfg.ICSPath,
		PluginPaths: cfg.CalendarPluginPaths,
		Location:    c.Location,
		Clock:       c.Clock,
		Logger:      c.Logger,
	}
	if cfg.GoogleConfigured() {
		importerConfig.GoogleOAuth = oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRefreshToken)
	}
	if cfg.OutlookConfigured() {
		importerConfig.OutlookOAuth = oauth.NewOutlookProvider(cfg.OutlookTenant, cfg.OutlookClientID, cfg.OutlookClientSecret, cfg.OutlookRefreshToken)
	}
	if len(cfg.CalendarPluginPaths) > 0 {
		c.PluginHost = calendarPlugin.NewHost(c.Logger)
		importerConfig.PluginHost = c.PluginHost
	}

	c.Importers = calendarApp.NewImporterRegistry()
	calendarSetup.RegisterImporters(c.Importers, importerConfig)

	threshold := uint32(0)
	if cfg.BreakerFailureThreshold > 0 {
		threshold = uint32(cfg.BreakerFailureThreshold)
	}
	c.CalendarSync = calendarApp.NewSyncService(calendarApp.SyncDeps{
		Registry:   c.Importers,
		Events:     c.Repos.Events,
		States:     c.Repos.SyncStates,
		Outbox:     c.Repos.Outbox,
		UnitOfWork: c.Repos.UnitOfWork,
		Sink:       c.Sink,
		Clock:      c.Clock,
		Metrics:    c.Metrics,
		Logger:     c.Logger,
	}, calendarApp.SyncConfig{
		LookAheadDays:           cfg.CalendarLookAheadDays,
		BreakerFailureThreshold: threshold,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
	})
	c.AddManualEvent = calendarApp.NewAddManualEventHandler(c.Repos.Events, c.Sink, c.Clock)
	c.ListEvents = calendarApp.NewListEventsHandler(c.Repos.Events, c.Clock)
}

// loadDefaultPreferences reads PREFERENCES_FILE, or returns the built-in
// defaults in the configured timezone.
func (c *Container) loadDefaultPreferences() (schedulingDomain.UserPreferences, error) {
	if c.Config.PreferencesFile != "" {
		prefs, err := prefsfile.Load(c.Config.PreferencesFile)
		if err != nil {
			return schedulingDomain.UserPreferences{}, err
		}
		return prefs, nil
	}
	prefs := schedulingDomain.DefaultPreferences()
	prefs.Timezone = c.Location.String()
	return prefs, nil
}

// connectRedis returns the lease lock and snapshot cache, or nils when
// Redis is not configured. Outside production an unreachable Redis only
// disables them.
func (c *Container) connectRedis(ctx context.Context) (schedulingDomain.ScheduleLock, schedulingDomain.SnapshotCache) {
	cfg := c.Config
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid Redis URL, running without lock and cache", "error", err)
		return nil, nil
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		c.Logger.Warn("Redis not available, running without lock and cache", "error", err)
		return nil, nil
	}
	c.RedisClient = client
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return redisstore.NewLeaseLock(client, cfg.ScheduleLockTTL, cfg.ScheduleLockWait),
		redisstore.NewSnapshotCache(client, cfg.SnapshotCacheTTL)
}

// outboxHealth degrades once messages are dead-lettered or the last publish
// failed.
func (c *Container) outboxHealth(context.Context) observability.HealthCheckResult {
	stats := c.OutboxProcessor.GetStats()
	details := map[string]any{
		"published":   stats.PublishedCount,
		"failed":      stats.FailedCount,
		"dead":        stats.DeadCount,
		"lag_seconds": stats.LagSeconds,
	}
	if stats.DeadCount > 0 || stats.LastError != "" {
		return observability.HealthCheckResult{
			Status:  observability.HealthStatusDegraded,
			Message: "outbox has failed deliveries",
			Details: details,
		}
	}
	return observability.HealthCheckResult{Status: observability.HealthStatusHealthy, Details: details}
}

func (c *Container) connectPublisher() error {
	if c.Config.RabbitMQURL == "" {
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}
	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if c.Config.IsProduction() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}
	c.EventPublisher = publisher
	c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusDegraded, publisher.Ping))
	return nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.SyncWorker != nil && c.SyncWorker.IsRunning() {
		c.SyncWorker.Stop()
	}
	if c.OverdueWorker != nil && c.OverdueWorker.IsRunning() {
		c.OverdueWorker.Stop()
	}
	if c.ReminderWorker != nil && c.ReminderWorker.IsRunning() {
		c.ReminderWorker.Stop()
	}
	if c.Dispatcher != nil && c.Dispatcher.IsRunning() {
		c.Dispatcher.Stop()
	}
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.PluginHost != nil {
		c.PluginHost.Close()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.DB = nil
		c.Logger.Info("PostgreSQL connection closed")
	}
	if c.SQLite != nil {
		if err := c.SQLite.Close(); err != nil {
			c.Logger.Warn("error closing SQLite connection", "error", err)
		}
		c.SQLite = nil
	}
}
