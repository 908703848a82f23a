package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	projectDomain "github.com/felixgeelhaar/cadence/internal/projects/domain"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
)

const (
	// DefaultEventHorizon is how far ahead calendar events are loaded.
	DefaultEventHorizon = 21 * 24 * time.Hour
	eventLookBehind     = 24 * time.Hour
)

// RecomputeCommand runs one trigger against a user's schedule.
type RecomputeCommand struct {
	UserID        uuid.UUID
	Trigger       domain.Trigger
	CorrelationID uuid.UUID
}

// RecomputeResult is the engine report plus the blocks now stored.
type RecomputeResult struct {
	Report domain.Report
	Blocks []domain.TimeBlock
}

// RecomputeDeps wires the handler. Lock, Cache and Metrics are optional.
type RecomputeDeps struct {
	Tasks       task.Repository
	Projects    projectDomain.Repository
	Blocks      domain.BlockRepository
	Events      calendarDomain.EventRepository
	Preferences domain.PreferencesRepository
	Outbox      outbox.Repository
	UnitOfWork  sharedApplication.UnitOfWork
	Engine      *services.Engine

	Lock    domain.ScheduleLock
	Cache   domain.SnapshotCache
	Metrics observability.Metrics
	Logger  *slog.Logger

	// DefaultPreferences apply when the user never stored any.
	DefaultPreferences *domain.UserPreferences
	ConflictPolicy     domain.ConflictPolicy
	EventHorizon       time.Duration
}

// RecomputeHandler loads a user's scheduler state, runs the engine and
// persists the outcome. Calls are serialized in-process; the optional lease
// lock serializes them across processes.
type RecomputeHandler struct {
	deps    RecomputeDeps
	logger  *slog.Logger
	metrics observability.Metrics
	mu      sync.Mutex
}

// NewRecomputeHandler creates a RecomputeHandler.
func NewRecomputeHandler(deps RecomputeDeps) *RecomputeHandler {
	if deps.Engine == nil {
		deps.Engine = services.NewEngine(nil)
	}
	if deps.EventHorizon <= 0 {
		deps.EventHorizon = DefaultEventHorizon
	}
	if deps.ConflictPolicy == "" {
		deps.ConflictPolicy = domain.PolicyNotifyOnly
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RecomputeHandler{deps: deps, logger: logger, metrics: metrics}
}

// Submit runs trigger synchronously. A correlation ID carried by ctx is
// propagated to the emitted events.
func (h *RecomputeHandler) Submit(ctx context.Context, userID uuid.UUID, trigger domain.Trigger) error {
	correlationID, _ := uuid.Parse(observability.CorrelationIDFromContext(ctx))
	_, err := h.Handle(ctx, RecomputeCommand{UserID: userID, Trigger: trigger, CorrelationID: correlationID})
	return err
}

// Handle executes the RecomputeCommand.
func (h *RecomputeHandler) Handle(ctx context.Context, cmd RecomputeCommand) (*RecomputeResult, error) {
	if cmd.Trigger == nil {
		return nil, errors.New("recompute: nil trigger")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.deps.Lock != nil {
		release, err := h.deps.Lock.Acquire(ctx, cmd.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrLockNotAcquired) {
				h.metrics.Counter(observability.MetricLockContention, 1)
			}
			return nil, fmt.Errorf("recompute %s: %w", cmd.Trigger.Kind(), err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				h.logger.Warn("failed to release schedule lock", "user_id", cmd.UserID, "error", err)
			}
		}()
	}

	kind := cmd.Trigger.Kind().String()
	timer := observability.StartTimer("schedule.recompute").
		WithMetrics(h.metrics).
		WithTags(observability.T("trigger", kind))

	result, err := sharedApplication.WithUnitOfWorkResult(ctx, h.deps.UnitOfWork, func(txCtx context.Context) (*RecomputeResult, error) {
		state, err := h.loadState(txCtx, cmd.UserID, cmd.Trigger.At())
		if err != nil {
			return nil, err
		}

		next, report := h.deps.Engine.Recompute(state, cmd.Trigger)

		events, err := h.persistTasks(txCtx, state, next)
		if err != nil {
			return nil, err
		}
		if err := h.deps.Blocks.ReplaceAll(txCtx, cmd.UserID, next.Blocks); err != nil {
			return nil, fmt.Errorf("replace blocks: %w", err)
		}

		events = append(events, h.scheduleEvents(cmd.UserID, report)...)
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.UserID, cmd.CorrelationID))
		msgs, err := outbox.NewMessages(events)
		if err != nil {
			return nil, err
		}
		if err := h.deps.Outbox.SaveBatch(txCtx, msgs); err != nil {
			return nil, fmt.Errorf("save outbox: %w", err)
		}

		return &RecomputeResult{Report: report, Blocks: next.Blocks}, nil
	})
	elapsed := timer.StopWithError(err)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", kind, err)
	}

	h.refreshCache(ctx, cmd.UserID, result)
	h.record(kind, result.Report, elapsed)

	report := result.Report
	h.logger.Info("schedule recomputed",
		"user_id", cmd.UserID,
		"trigger", kind,
		"blocks", report.BlocksAfter,
		"allocations", len(report.Allocations),
		"under_scheduled", len(report.UnderScheduled),
		"rescheduled", len(report.OverdueChanges),
		"conflicts", len(report.Conflicts),
		"duration_ms", elapsed.Milliseconds(),
	)
	for _, a := range report.UnderScheduled {
		h.logger.Warn("task under-scheduled",
			"task_id", a.TaskID,
			"requested", a.Requested,
			"allocated", a.Allocated,
		)
	}
	if report.Skipped != "" {
		h.logger.Debug("recompute skipped", "trigger", kind, "reason", report.Skipped)
	}

	return result, nil
}

// LoadState reads everything a recompute needs for userID.
func (h *RecomputeHandler) LoadState(ctx context.Context, userID uuid.UUID, now time.Time) (domain.SchedulerState, error) {
	return h.loadState(ctx, userID, now)
}

func (h *RecomputeHandler) loadState(ctx context.Context, userID uuid.UUID, now time.Time) (domain.SchedulerState, error) {
	tasks, err := h.deps.Tasks.FindByUser(ctx, userID, task.Filter{})
	if err != nil {
		return domain.SchedulerState{}, fmt.Errorf("load tasks: %w", err)
	}

	projects := map[uuid.UUID]*projectDomain.Project{}
	if h.deps.Projects != nil {
		list, err := h.deps.Projects.FindByUser(ctx, userID)
		if err != nil {
			return domain.SchedulerState{}, fmt.Errorf("load projects: %w", err)
		}
		for _, p := range list {
			projects[p.ID()] = p
		}
	}

	blocks, err := h.deps.Blocks.FindByUser(ctx, userID)
	if err != nil {
		return domain.SchedulerState{}, fmt.Errorf("load blocks: %w", err)
	}

	var events []*calendarDomain.Event
	if h.deps.Events != nil {
		events, err = h.deps.Events.FindInRange(ctx, userID, now.Add(-eventLookBehind), now.Add(h.deps.EventHorizon))
		if err != nil {
			return domain.SchedulerState{}, fmt.Errorf("load calendar events: %w", err)
		}
	}

	prefs, err := h.preferences(ctx, userID)
	if err != nil {
		return domain.SchedulerState{}, err
	}

	return domain.SchedulerState{
		UserID:      userID,
		Tasks:       tasks,
		Projects:    projects,
		Blocks:      blocks,
		Events:      events,
		Preferences: prefs,
	}, nil
}

func (h *RecomputeHandler) preferences(ctx context.Context, userID uuid.UUID) (domain.UserPreferences, error) {
	fallback := domain.DefaultPreferences()
	if h.deps.DefaultPreferences != nil {
		fallback = *h.deps.DefaultPreferences
	}
	return domain.LoadPreferences(ctx, h.deps.Preferences, userID, fallback)
}

// persistTasks saves tasks whose priority changed or that raised events, and
// returns those events.
func (h *RecomputeHandler) persistTasks(ctx context.Context, before, after domain.SchedulerState) ([]sharedDomain.DomainEvent, error) {
	var changed []*task.Task
	var events []sharedDomain.DomainEvent
	for _, t := range after.Tasks {
		pending := t.PullDomainEvents()
		prev := before.Task(t.ID())
		if len(pending) == 0 && prev != nil && prev.Priority().Equals(t.Priority()) {
			continue
		}
		changed = append(changed, t)
		events = append(events, pending...)
	}
	if len(changed) == 0 {
		return nil, nil
	}
	if err := h.deps.Tasks.SaveAll(ctx, changed); err != nil {
		return nil, fmt.Errorf("save tasks: %w", err)
	}
	return events, nil
}

func (h *RecomputeHandler) scheduleEvents(userID uuid.UUID, report domain.Report) []sharedDomain.DomainEvent {
	if report.Skipped != "" {
		return nil
	}
	events := []sharedDomain.DomainEvent{domain.NewScheduleRecomputed(userID, report)}

	seen := map[[2]uuid.UUID]bool{}
	for _, c := range append(report.DetectedConflicts, report.Conflicts...) {
		key := [2]uuid.UUID{c.BlockID, c.EventID}
		if seen[key] {
			continue
		}
		seen[key] = true
		events = append(events, domain.NewConflictDetected(userID, c, h.deps.ConflictPolicy, report.At))
	}
	for _, a := range report.UnderScheduled {
		events = append(events, domain.NewTaskUnderScheduled(userID, a, report.At))
	}
	return events
}

func (h *RecomputeHandler) refreshCache(ctx context.Context, userID uuid.UUID, result *RecomputeResult) {
	if h.deps.Cache == nil {
		return
	}
	snapshot := domain.NewScheduleSnapshot(userID, result.Report.Trigger, result.Report.At, result.Blocks)
	if err := h.deps.Cache.Put(ctx, snapshot); err != nil {
		h.logger.Warn("failed to refresh schedule cache", "user_id", userID, "error", err)
	}
}

func (h *RecomputeHandler) record(kind string, report domain.Report, elapsed time.Duration) {
	tag := observability.T("trigger", kind)
	h.metrics.Counter(observability.MetricRecomputes, 1, tag)
	h.metrics.Timing(observability.MetricRecomputeDuration, elapsed, tag)
	h.metrics.Gauge(observability.MetricBlocksScheduled, float64(report.BlocksAfter))
	if n := len(report.UnderScheduled); n > 0 {
		h.metrics.Counter(observability.MetricUnderScheduled, int64(n), tag)
	}
	if n := len(report.Conflicts) + len(report.DetectedConflicts); n > 0 {
		h.metrics.Counter(observability.MetricConflicts, int64(n), tag)
	}
	if n := len(report.OverdueChanges); n > 0 {
		h.metrics.Counter(observability.MetricReschedules, int64(n))
	}
}
