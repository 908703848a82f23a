package microsoft

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubTokenSourceProvider struct {
	source oauth2.TokenSource
}

func (s stubTokenSourceProvider) TokenSource(context.Context, uuid.UUID) (oauth2.TokenSource, error) {
	return s.source, nil
}

var (
	syncedAt = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	from     = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to       = from.AddDate(0, 0, 7)
)

func newTestImporter(serverURL string) *Importer {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"})
	return NewImporter(stubTokenSourceProvider{source: source}, uuid.New(), nil).
		WithBaseURL(serverURL).
		WithClock(sharedDomain.FixedClock{At: syncedAt})
}

func TestImporter_Import(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test", r.Header.Get("Authorization"))
		assert.Equal(t, `outlook.timezone="UTC"`, r.Header.Get("Prefer"))
		assert.Equal(t, "/me/calendarView", r.URL.Path)

		var page map[string]any
		if r.URL.Query().Get("page") == "" {
			assert.Equal(t, from.Format(time.RFC3339), r.URL.Query().Get("startDateTime"))
			page = map[string]any{
				"@odata.nextLink": server.URL + "/me/calendarView?page=2",
				"value": []map[string]any{
					{"id": "review", "subject": "Design review", "importance": "high", "showAs": "busy",
						"start": map[string]string{"dateTime": "2026-03-02T14:00:00.0000000", "timeZone": "UTC"},
						"end":   map[string]string{"dateTime": "2026-03-02T15:30:00.0000000", "timeZone": "UTC"}},
					{"id": "focus", "subject": "Optional", "showAs": "free",
						"start": map[string]string{"dateTime": "2026-03-02T16:00:00", "timeZone": "UTC"},
						"end":   map[string]string{"dateTime": "2026-03-02T17:00:00", "timeZone": "UTC"}},
				},
			}
		} else {
			page = map[string]any{
				"value": []map[string]any{
					{"id": "holiday", "subject": "Holiday", "isAllDay": true,
						"start": map[string]string{"dateTime": "2026-03-05T00:00:00.0000000", "timeZone": "UTC"},
						"end":   map[string]string{"dateTime": "2026-03-06T00:00:00.0000000", "timeZone": "UTC"}},
					{"id": "cancelled", "subject": "Dropped", "isCancelled": true,
						"start": map[string]string{"dateTime": "2026-03-03T09:00:00", "timeZone": "UTC"},
						"end":   map[string]string{"dateTime": "2026-03-03T10:00:00", "timeZone": "UTC"}},
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	events, err := newTestImporter(server.URL).Import(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, events, 2)

	review := events[0]
	assert.Equal(t, domain.SourceOutlook, review.Source())
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), review.Start())
	assert.Equal(t, 90*time.Minute, review.Duration())
	assert.Equal(t, 3, review.Priority())

	holiday := events[1]
	assert.True(t, holiday.IsAllDay())
	assert.Equal(t, 24*time.Hour, holiday.Duration())
	assert.Equal(t, 2, holiday.Priority())
}

func TestImporter_CalendarID(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	_, err := newTestImporter(server.URL).WithCalendarID("AAMkAD").Import(context.Background(), from, to)

	require.NoError(t, err)
	assert.Equal(t, "/me/calendars/AAMkAD/calendarView", path)
}

func TestImporter_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestImporter(server.URL).Import(context.Background(), from, to)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}
