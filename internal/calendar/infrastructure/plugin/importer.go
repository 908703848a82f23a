package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// Importer merges the events of every configured plugin into the plugin
// source. External IDs are "<plugin>:<id>".
type Importer struct {
	sources  []NamedSource
	userID   uuid.UUID
	location *time.Location
	clock    sharedDomain.Clock
	logger   *slog.Logger
}

// NewImporter creates an importer over already launched sources.
func NewImporter(userID uuid.UUID, logger *slog.Logger, sources ...NamedSource) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		sources:  sources,
		userID:   userID,
		location: time.UTC,
		clock:    sharedDomain.SystemClock{},
		logger:   logger,
	}
}

// WithLocation sets the zone all-day events are anchored in.
func (i *Importer) WithLocation(loc *time.Location) *Importer {
	if loc != nil {
		i.location = loc
	}
	return i
}

// WithClock sets the clock used for sync timestamps.
func (i *Importer) WithClock(clock sharedDomain.Clock) *Importer {
	if clock != nil {
		i.clock = clock
	}
	return i
}

// Source implements application.Importer.
func (i *Importer) Source() domain.Source { return domain.SourcePlugin }

// Import asks every plugin for [from, to). A failing plugin fails the whole
// import so the previously stored plugin events stay in place.
func (i *Importer) Import(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	syncedAt := i.clock.Now()
	var events []*domain.Event
	for _, named := range i.sources {
		served, err := named.Source.ListEvents(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("%w: plugin %s: %v", application.ErrSourceUnavailable, named.Name, err)
		}
		for _, e := range served {
			event, err := i.toEvent(named.Name, e, syncedAt)
			if err != nil {
				i.logger.Debug("skipping plugin event", "plugin", named.Name, "event_id", e.ID, "error", err)
				continue
			}
			events = append(events, event)
		}
	}
	return events, nil
}

func (i *Importer) toEvent(pluginName string, e Event, syncedAt time.Time) (*domain.Event, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("event without id")
	}
	title := e.Title
	if strings.TrimSpace(title) == "" {
		title = "(busy)"
	}
	externalID := pluginName + ":" + e.ID

	var (
		event *domain.Event
		err   error
	)
	if e.AllDay {
		first := e.Start.In(i.location)
		last := e.End.In(i.location).Add(-time.Nanosecond)
		event, err = domain.NewAllDayEvent(i.userID, domain.SourcePlugin, externalID, title, first, last, i.location, syncedAt)
	} else {
		event, err = domain.NewEvent(i.userID, domain.SourcePlugin, externalID, title, e.Start, e.End, syncedAt)
	}
	if err != nil {
		return nil, err
	}
	event.SetPriority(e.Priority)
	return event, nil
}
