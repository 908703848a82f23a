// Package microsoft imports busy time from Outlook through Microsoft Graph.
package microsoft

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
	defaultBaseURL = "https://graph.microsoft.com/v1.0"
	pageSize       = 100
	requestTimeout = 15 * time.Second
	untitled       = "(busy)"

	// Graph returns local times without an offset; asking for UTC makes them
	// parseable as such.
	graphTimeLayout = "2006-01-02T15:04:05.9999999"
)

// TokenSourceProvider provides OAuth2 tokens for a user.
type TokenSourceProvider interface {
	TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error)
}

// Importer reads an Outlook calendar's calendarView.
type Importer struct {
	tokens     TokenSourceProvider
	userID     uuid.UUID
	baseURL    string
	calendarID string
	location   *time.Location
	clock      sharedDomain.Clock
	logger     *slog.Logger
}

// NewImporter creates an importer for the user's default calendar.
func NewImporter(tokens TokenSourceProvider, userID uuid.UUID, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		tokens:   tokens,
		userID:   userID,
		baseURL:  defaultBaseURL,
		location: time.UTC,
		clock:    sharedDomain.SystemClock{},
		logger:   logger,
	}
}

// WithBaseURL points the importer at another Graph root.
func (i *Importer) WithBaseURL(baseURL string) *Importer {
	if baseURL != "" {
		i.baseURL = strings.TrimRight(baseURL, "/")
	}
	return i
}

// WithCalendarID selects a calendar other than the default one.
func (i *Importer) WithCalendarID(calendarID string) *Importer {
	if calendarID != "primary" {
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
func (i *Importer) Source() domain.Source { return domain.SourceOutlook }

type msDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type msEvent struct {
	ID          string     `json:"id"`
	Subject     string     `json:"subject"`
	IsCancelled bool       `json:"isCancelled"`
	IsAllDay    bool       `json:"isAllDay"`
	ShowAs      string     `json:"showAs"`
	Importance  string     `json:"importance"`
	Start       msDateTime `json:"start"`
	End         msDateTime `json:"end"`
}

type viewPage struct {
	Value    []msEvent `json:"value"`
	NextLink string    `json:"@odata.nextLink"`
}

// Import reads the calendar view for [from, to). Cancelled events and events
// shown as free are skipped.
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
	next := i.viewURL(from, to)
	for next != "" {
		page, err := i.fetchPage(ctx, client, next)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Value {
			if item.IsCancelled || item.ShowAs == "free" {
				continue
			}
			event, err := i.toEvent(item, syncedAt)
			if err != nil {
				i.logger.Debug("skipping outlook event", "event_id", item.ID, "error", err)
				continue
			}
			events = append(events, event)
		}
		next = page.NextLink
	}
	return events, nil
}

func (i *Importer) viewURL(from, to time.Time) string {
	path := "/me/calendarView"
	if i.calendarID != "" {
		path = fmt.Sprintf("/me/calendars/%s/calendarView", url.PathEscape(i.calendarID))
	}
	params := url.Values{}
	params.Set("startDateTime", from.UTC().Format(time.RFC3339))
	params.Set("endDateTime", to.UTC().Format(time.RFC3339))
	params.Set("$top", fmt.Sprint(pageSize))
	params.Set("$select", "id,subject,isCancelled,isAllDay,showAs,importance,start,end")
	return i.baseURL + path + "?" + params.Encode()
}

func (i *Importer) fetchPage(ctx context.Context, client *http.Client, pageURL string) (*viewPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	var page viewPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode outlook events: %w", err)
	}
	return &page, nil
}

func (i *Importer) toEvent(item msEvent, syncedAt time.Time) (*domain.Event, error) {
	title := item.Subject
	if strings.TrimSpace(title) == "" {
		title = untitled
	}

	var (
		event *domain.Event
		err   error
	)
	if item.IsAllDay {
		if len(item.Start.DateTime) < 10 || len(item.End.DateTime) < 10 {
			return nil, fmt.Errorf("malformed all-day dates")
		}
		first, perr := time.ParseInLocation(time.DateOnly, item.Start.DateTime[:10], i.location)
		if perr != nil {
			return nil, perr
		}
		after, perr := time.ParseInLocation(time.DateOnly, item.End.DateTime[:10], i.location)
		if perr != nil {
			return nil, perr
		}
		event, err = domain.NewAllDayEvent(i.userID, domain.SourceOutlook, item.ID, title, first, after.AddDate(0, 0, -1), i.location, syncedAt)
	} else {
		start, perr := time.Parse(graphTimeLayout, item.Start.DateTime)
		if perr != nil {
			return nil, perr
		}
		end, perr := time.Parse(graphTimeLayout, item.End.DateTime)
		if perr != nil {
			return nil, perr
		}
		event, err = domain.NewEvent(i.userID, domain.SourceOutlook, item.ID, title, start, end, syncedAt)
	}
	if err != nil {
		return nil, err
	}

	event.SetPriority(importancePriority(item.Importance))
	return event, nil
}

func importancePriority(importance string) int {
	switch importance {
	case "low":
		return 1
	case "high":
		return 3
	default:
		return 2
	}
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("microsoft calendar API failed: status=%d body=%s", resp.StatusCode, string(body))
}
