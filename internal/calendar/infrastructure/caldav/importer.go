// Package caldav imports busy time from CalDAV servers such as Fastmail,
// Nextcloud and iCloud.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/icalendar"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

const requestTimeout = 30 * time.Second

// Importer reads VEVENTs from one CalDAV calendar.
type Importer struct {
	baseURL      string
	username     string
	password     string // App-specific password for Apple
	calendarPath string // Specific calendar path, or empty for the first one found
	userID       uuid.UUID
	httpClient   *http.Client
	location     *time.Location
	clock        sharedDomain.Clock
	logger       *slog.Logger
}

// NewImporter creates a CalDAV importer authenticating with basic auth.
func NewImporter(baseURL, username, password string, userID uuid.UUID, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		userID:     userID,
		httpClient: &http.Client{Timeout: requestTimeout},
		location:   time.UTC,
		clock:      sharedDomain.SystemClock{},
		logger:     logger,
	}
}

// WithCalendarPath sets the specific calendar path to use.
func (i *Importer) WithCalendarPath(path string) *Importer {
	i.calendarPath = path
	return i
}

// WithLocation sets the zone floating and all-day times are read in.
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
func (i *Importer) Source() domain.Source { return domain.SourceCalDAV }

// Import runs a calendar-query REPORT for VEVENTs overlapping [from, to).
func (i *Importer) Import(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	client, err := i.client()
	if err != nil {
		return nil, err
	}

	calPath, err := i.findCalendarPath(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  ical.CompCalendar,
			Props: []string{ical.PropVersion},
			Comps: []caldav.CalendarCompRequest{{
				Name: ical.CompEvent,
				Props: []string{
					ical.PropUID, ical.PropSummary, ical.PropDateTimeStart, ical.PropDateTimeEnd,
					ical.PropDuration, ical.PropStatus, ical.PropTransparency, ical.PropPriority,
					ical.PropRecurrenceRule, ical.PropRecurrenceDates, ical.PropExceptionDates,
				},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: from.UTC(),
				End:   to.UTC(),
			}},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	mapper := icalendar.Mapper{
		UserID:   i.userID,
		Source:   domain.SourceCalDAV,
		Location: i.location,
		SyncedAt: i.clock.Now(),
	}
	var events []*domain.Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		mapped, skipped := mapper.Map(obj.Data, from, to)
		for _, err := range skipped {
			i.logger.Debug("skipping caldav event", "path", obj.Path, "error", err)
		}
		events = append(events, mapped...)
	}
	return events, nil
}

func (i *Importer) client() (*caldav.Client, error) {
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(i.httpClient, i.username, i.password), i.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (i *Importer) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if i.calendarPath != "" {
		return i.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	// First calendar is usually the default
	return cals[0].Path, nil
}
