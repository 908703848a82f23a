// Package ics imports busy time from an iCalendar file or feed URL into the
// manual source.
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/icalendar"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/security"
	"github.com/google/uuid"
)

// ExternalIDPrefix marks manual events that came from an ICS import.
const ExternalIDPrefix = "ics:"

const fetchTimeout = 30 * time.Second

// Importer reads VEVENTs from a local .ics file or an http(s) feed.
type Importer struct {
	location   string
	userID     uuid.UUID
	httpClient *http.Client
	zone       *time.Location
	clock      sharedDomain.Clock
	logger     *slog.Logger
}

// NewImporter creates an importer for location, a file path or URL.
func NewImporter(location string, userID uuid.UUID, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		location:   location,
		userID:     userID,
		httpClient: &http.Client{Timeout: fetchTimeout},
		zone:       time.UTC,
		clock:      sharedDomain.SystemClock{},
		logger:     logger,
	}
}

// WithLocation sets the zone floating and all-day times are read in.
func (i *Importer) WithLocation(loc *time.Location) *Importer {
	if loc != nil {
		i.zone = loc
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
func (i *Importer) Source() domain.Source { return domain.SourceManual }

// Owns reports whether externalID was written by an ICS import. Events added
// by hand share the manual source and are left alone.
func (i *Importer) Owns(externalID string) bool {
	return strings.HasPrefix(externalID, ExternalIDPrefix)
}

// Import decodes every VCALENDAR in the file and returns the events
// overlapping [from, to).
func (i *Importer) Import(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	r, err := i.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrSourceUnavailable, err)
	}
	defer r.Close()

	mapper := icalendar.Mapper{
		UserID:   i.userID,
		Source:   domain.SourceManual,
		Prefix:   ExternalIDPrefix,
		Location: i.zone,
		SyncedAt: i.clock.Now(),
	}

	var events []*domain.Event
	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", i.location, err)
		}
		mapped, skipped := mapper.Map(cal, from, to)
		for _, err := range skipped {
			i.logger.Debug("skipping ics event", "location", i.location, "error", err)
		}
		events = append(events, mapped...)
	}
	return events, nil
}

func (i *Importer) open(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(i.location, "http://") && !strings.HasPrefix(i.location, "https://") {
		return security.SafeOpen(i.location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch feed: status=%d", resp.StatusCode)
	}
	return resp.Body, nil
}
