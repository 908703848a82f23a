// Package google imports busy time from Google Calendar.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://www.googleapis.com/calendar/v3"
	pageSize       = 250
	requestTimeout = 15 * time.Second
	untitled       = "(busy)"
)

// TokenSourceProvider provides OAuth2 tokens for a user.
type TokenSourceProvider interface {
	TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error)
}

// Importer reads one Google calendar through the Calendar v3 API.
type Importer struct {
	tokens     TokenSourceProvider
	userID     uuid.UUID
	baseURL    string
	calendarID string
	location   *time.Location
	clock      sharedDomain.Clock
	logger     *slog.Logger
}

// NewImporter creates an importer for the user's primary calendar.
func NewImporter(tokens TokenSourceProvider, userID uuid.UUID, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		tokens:     tokens,
		userID:     userID,
		baseURL:    defaultBaseURL,
		calendarID: "primary",
		location:   time.UTC,
		clock:      sharedDomain.SystemClock{},
		logger:     logger,
	}
}

// WithBaseURL points the importer at another API root.
func (i *Importer) WithBaseURL(baseURL string) *Importer {
	if baseURL != "" {
		i.baseURL = strings.TrimRight(baseURL, "/")
	}
	return i
}

// WithCalendarID selects a calendar other than "primary".
func (i *Importer) WithCalendarID(calendarID string) *Importer {
	if calendarID != "" {
		i.calendarID = calendarID
	}
	return i
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
func (i *Importer) Source() domain.Source { return domain.SourceGoogle }

type googleTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type googleEvent struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Summary      string     `json:"summary"`
	Transparency string     `json:"transparency"`
	Start        googleTime `json:"start"`
	End          googleTime `json:"end"`
}

type eventsPage struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

// Import lists expanded events overlapping [from, to). Cancelled events and
// events marked free are skipped.
func (i *Importer) Import(ctx context.Context, from, to time.Time) ([]*domain.Event, error) {
	if i.tokens == nil {
		return nil, fmt.Errorf("oauth service not configured")
	}
	tokenSource, err := i.tokens.TokenSource(ctx, i.userID)
	if err != nil {
		return nil, err
	}
	client := &http.Client{
		Timeout:   requestTimeout,
		Transport: &oauth2.Transport{Source: tokenSource, Base: http.DefaultTransport},
	}

	syncedAt := i.clock.Now()
	var events []*domain.Event
	pageToken := ""
	for {
		page, err := i.fetchPage(ctx, client, from, to, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Status == "cancelled" || item.Transparency == "transparent" {
				continue
			}
			event, err := i.toEvent(item, syncedAt)
			if err != nil {
				i.logger.Debug("skipping google event", "event_id", item.ID, "error", err)
				continue
			}
			events = append(events, event)
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

func (i *Importer) fetchPage(ctx context.Context, client *http.Client, from, to time.Time, pageToken string) (*eventsPage, error) {
	params := url.Values{}
	params.Set("timeMin", from.UTC().Format(time.RFC3339))
	params.Set("timeMax", to.UTC().Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", fmt.Sprint(pageSize))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	listURL := fmt.Sprintf("%s/calendars/%s/events?%s", i.baseURL, url.PathEscape(i.calendarID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var page eventsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode google events: %w", err)
	}
	return &page, nil
}

func (i *Importer) toEvent(item googleEvent, syncedAt time.Time) (*domain.Event, error) {
	title := item.Summary
	if strings.TrimSpace(title) == "" {
		title = untitled
	}

	if item.Start.DateTime != "" && item.End.DateTime != "" {
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			return nil, err
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return nil, err
		}
		return domain.NewEvent(i.userID, domain.SourceGoogle, item.ID, title, start, end, syncedAt)
	}

	if item.Start.Date != "" && item.End.Date != "" {
		first, err := time.ParseInLocation(time.DateOnly, item.Start.Date, i.location)
		if err != nil {
			return nil, err
		}
		// end.date is exclusive
		after, err := time.ParseInLocation(time.DateOnly, item.End.Date, i.location)
		if err != nil {
			return nil, err
		}
		return domain.NewAllDayEvent(i.userID, domain.SourceGoogle, item.ID, title, first, after.AddDate(0, 0, -1), i.location, syncedAt)
	}

	return nil, fmt.Errorf("event has no start or end")
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("google calendar API failed: status=%d body=%s", resp.StatusCode, string(body))
}
