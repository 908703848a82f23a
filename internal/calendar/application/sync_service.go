package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

const (
	// DefaultLookAheadDays is how far ahead sources are imported.
	DefaultLookAheadDays = 14
	// DefaultBreakerFailureThreshold is the consecutive failures that open a source's breaker.
	DefaultBreakerFailureThreshold = 3
	// DefaultBreakerOpenTimeout is how long an open breaker rejects imports.
	DefaultBreakerOpenTimeout = 5 * time.Minute

	importLookBehind = 24 * time.Hour
)

// SyncConfig tunes a SyncService.
type SyncConfig struct {
	LookAheadDays           int
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

// DefaultSyncConfig returns the default configuration.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		LookAheadDays:           DefaultLookAheadDays,
		BreakerFailureThreshold: DefaultBreakerFailureThreshold,
		BreakerOpenTimeout:      DefaultBreakerOpenTimeout,
	}
}

// SyncDeps wires a SyncService. Outbox, UnitOfWork, Sink and Metrics are optional.
type SyncDeps struct {
	Registry   *ImporterRegistry
	Events     domain.EventRepository
	States     domain.SyncStateRepository
	Outbox     outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork
	Sink       schedulingDomain.TriggerSink
	Clock      sharedDomain.Clock
	Metrics    observability.Metrics
	Logger     *slog.Logger
}

// SourceResult is the outcome of importing one source.
type SourceResult struct {
	Source  domain.Source
	Events  int
	Changed bool
	// Skipped is set when the source's breaker is open.
	Skipped bool
	Err     error
}

// SyncReport summarizes one SyncAll pass.
type SyncReport struct {
	UserID  uuid.UUID
	At      time.Time
	Results []SourceResult
}

// Changed reports whether any source changed.
func (r *SyncReport) Changed() bool {
	for _, res := range r.Results {
		if res.Changed {
			return true
		}
	}
	return false
}

// Failed returns the sources that did not import.
func (r *SyncReport) Failed() []SourceResult {
	var failed []SourceResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// SyncService imports every registered source into the event repository.
// A failing source keeps its previously stored events.
type SyncService struct {
	deps    SyncDeps
	config  SyncConfig
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[domain.Source]*gobreaker.CircuitBreaker[[]*domain.Event]
}

// NewSyncService creates a SyncService.
func NewSyncService(deps SyncDeps, config SyncConfig) *SyncService {
	if config.LookAheadDays <= 0 {
		config.LookAheadDays = DefaultLookAheadDays
	}
	if config.BreakerFailureThreshold == 0 {
		config.BreakerFailureThreshold = DefaultBreakerFailureThreshold
	}
	if config.BreakerOpenTimeout <= 0 {
		config.BreakerOpenTimeout = DefaultBreakerOpenTimeout
	}
	if deps.UnitOfWork == nil {
		deps.UnitOfWork = sharedApplication.NoopUnitOfWork{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		deps:     deps,
		config:   config,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
		breakers: make(map[domain.Source]*gobreaker.CircuitBreaker[[]*domain.Event]),
	}
}

// SyncAll imports every registered source for userID. When any source
// changed it publishes calendar.events.synced and submits a CalendarSynced
// trigger. Source failures are reported, not returned.
func (s *SyncService) SyncAll(ctx context.Context, userID uuid.UUID) (*SyncReport, error) {
	return s.sync(ctx, userID, s.deps.Registry.Sources())
}

// SyncSource imports a single source.
func (s *SyncService) SyncSource(ctx context.Context, userID uuid.UUID, source domain.Source) (*SyncReport, error) {
	if !s.deps.Registry.Has(source) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotRegistered, source)
	}
	return s.sync(ctx, userID, []domain.Source{source})
}

func (s *SyncService) sync(ctx context.Context, userID uuid.UUID, sources []domain.Source) (*SyncReport, error) {
	now := s.clock.Now()
	report := &SyncReport{UserID: userID, At: now}

	var changed []string
	total := 0
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := s.importSource(ctx, userID, source, now)
		report.Results = append(report.Results, res)
		if res.Changed {
			changed = append(changed, source.String())
			total += res.Events
		}
	}

	if len(changed) == 0 {
		return report, nil
	}
	if err := s.announce(ctx, userID, changed, total, now); err != nil {
		return report, err
	}
	return report, nil
}

func (s *SyncService) importSource(ctx context.Context, userID uuid.UUID, source domain.Source, now time.Time) SourceResult {
	res := SourceResult{Source: source}
	tag := observability.T("source", source.String())
	s.metrics.Counter(observability.MetricCalendarSyncs, 1, tag)

	var imported []*domain.Event
	importer, err := s.deps.Registry.Create(ctx, source, userID)
	if err == nil {
		imported, err = s.breaker(source).Execute(func() ([]*domain.Event, error) {
			return importer.Import(ctx, now.Add(-importLookBehind), now.AddDate(0, 0, s.config.LookAheadDays))
		})
	}
	if err == nil {
		res, err = s.store(ctx, userID, importer, imported, now)
	}
	if err != nil {
		res.Err = err
		res.Skipped = errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
		s.metrics.Counter(observability.MetricCalendarSyncErrors, 1, tag)
		s.recordFailure(ctx, userID, source, err, now)
		s.logger.Warn("calendar import failed",
			"user_id", userID,
			"source", source,
			"skipped", res.Skipped,
			"error", err,
		)
		return res
	}

	s.metrics.Gauge(observability.MetricCalendarEvents, float64(res.Events), tag)
	s.logger.Info("calendar imported",
		"user_id", userID,
		"source", source,
		"events", res.Events,
		"changed", res.Changed,
	)
	return res
}

// store writes imported as the source's event set when it differs from what
// is stored, and records the success.
func (s *SyncService) store(ctx context.Context, userID uuid.UUID, importer Importer, imported []*domain.Event, now time.Time) (SourceResult, error) {
	source := importer.Source()
	res := SourceResult{Source: source}

	err := sharedApplication.WithUnitOfWork(ctx, s.deps.UnitOfWork, func(txCtx context.Context) error {
		stored, err := s.deps.Events.FindBySource(txCtx, userID, source)
		if err != nil {
			return fmt.Errorf("load %s events: %w", source, err)
		}

		next := make([]*domain.Event, 0, len(imported))
		for _, e := range imported {
			if e.UserID() != userID || e.Source() != source {
				return fmt.Errorf("importer for %s returned event %s of %s/%s", source, e.ExternalID(), e.UserID(), e.Source())
			}
			next = append(next, e)
		}
		res.Events = len(next)
		if partial, ok := importer.(PartialImporter); ok {
			for _, e := range stored {
				if !partial.Owns(e.ExternalID()) {
					next = append(next, e)
				}
			}
		}

		if domain.Fingerprint(stored) != domain.Fingerprint(next) {
			if err := s.deps.Events.ReplaceSource(txCtx, userID, source, next); err != nil {
				return fmt.Errorf("replace %s events: %w", source, err)
			}
			res.Changed = true
		}

		state, err := s.loadState(txCtx, userID, source)
		if err != nil {
			return err
		}
		state.MarkSuccess(res.Events, now)
		return s.deps.States.Save(txCtx, state)
	})
	return res, err
}

func (s *SyncService) loadState(ctx context.Context, userID uuid.UUID, source domain.Source) (*domain.SyncState, error) {
	state, err := s.deps.States.Find(ctx, userID, source)
	if err != nil {
		return nil, fmt.Errorf("load %s sync state: %w", source, err)
	}
	if state == nil {
		state = domain.NewSyncState(userID, source)
	}
	return state, nil
}

func (s *SyncService) recordFailure(ctx context.Context, userID uuid.UUID, source domain.Source, cause error, now time.Time) {
	state, err := s.loadState(ctx, userID, source)
	if err == nil {
		state.MarkFailure(cause, now)
		err = s.deps.States.Save(ctx, state)
	}
	if err != nil {
		s.logger.Error("failed to record sync failure", "source", source, "error", err)
	}
}

func (s *SyncService) announce(ctx context.Context, userID uuid.UUID, sources []string, total int, now time.Time) error {
	if s.deps.Outbox != nil {
		event := domain.NewEventsSynced(userID, sources, total, now)
		correlationID, _ := uuid.Parse(observability.CorrelationIDFromContext(ctx))
		sharedApplication.ApplyEventMetadata([]sharedDomain.DomainEvent{event}, sharedApplication.NewEventMetadata(userID, correlationID))
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		if err := s.deps.Outbox.Save(ctx, msg); err != nil {
			return fmt.Errorf("save outbox: %w", err)
		}
	}
	if s.deps.Sink != nil {
		if err := s.deps.Sink.Submit(ctx, userID, schedulingDomain.CalendarSynced{Time: now}); err != nil {
			return fmt.Errorf("submit calendar trigger: %w", err)
		}
	}
	return nil
}

func (s *SyncService) breaker(source domain.Source) *gobreaker.CircuitBreaker[[]*domain.Event] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[source]; ok {
		return cb
	}
	threshold := s.config.BreakerFailureThreshold
	cb := gobreaker.NewCircuitBreaker[[]*domain.Event](gobreaker.Settings{
		Name:        "calendar." + source.String(),
		MaxRequests: 1,
		Timeout:     s.config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	s.breakers[source] = cb
	return cb
}
