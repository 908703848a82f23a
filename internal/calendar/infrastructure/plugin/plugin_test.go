package plugin

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

var (
	from     = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to       = from.AddDate(0, 0, 7)
	syncedAt = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
)

type staticSource struct {
	events   []Event
	err      error
	from, to time.Time
}

func (s *staticSource) ListEvents(_ context.Context, from, to time.Time) ([]Event, error) {
	s.from, s.to = from, to
	return s.events, s.err
}

// dialPlugin serves impl over an in-memory listener and returns the host-side
// EventSource.
func dialPlugin(t *testing.T, impl EventSource) EventSource {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	require.NoError(t, (&CalendarPlugin{Impl: impl}).GRPCServer(nil, server))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	raw, err := (&CalendarPlugin{}).GRPCClient(context.Background(), nil, conn)
	require.NoError(t, err)
	source, ok := raw.(EventSource)
	require.True(t, ok)
	return source
}

func TestCalendarPlugin_RoundTrip(t *testing.T) {
	impl := &staticSource{events: []Event{
		{ID: "a", Title: "Gym", Start: from.Add(7 * time.Hour), End: from.Add(8 * time.Hour), Priority: 2},
		{ID: "b", Title: "Trip", Start: from.AddDate(0, 0, 3), End: from.AddDate(0, 0, 5), AllDay: true},
	}}
	source := dialPlugin(t, impl)

	events, err := source.ListEvents(context.Background(), from, to)

	require.NoError(t, err)
	assert.Equal(t, impl.events, events)
	assert.True(t, impl.from.Equal(from))
	assert.True(t, impl.to.Equal(to))
}

func TestCalendarPlugin_Error(t *testing.T) {
	source := dialPlugin(t, &staticSource{err: errors.New("feed offline")})

	_, err := source.ListEvents(context.Background(), from, to)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed offline")
}

func TestImporter_Import(t *testing.T) {
	userID := uuid.New()
	gym := &staticSource{events: []Event{
		{ID: "a", Title: "Gym", Start: from.Add(7 * time.Hour), End: from.Add(8 * time.Hour)},
		{ID: "", Title: "broken", Start: from, End: from.Add(time.Hour)},
	}}
	travel := &staticSource{events: []Event{
		{ID: "b", Title: "", Start: from.AddDate(0, 0, 3), End: from.AddDate(0, 0, 5), AllDay: true},
	}}
	var importer application.Importer = NewImporter(userID, nil,
		NamedSource{Name: "gym", Source: dialPlugin(t, gym)},
		NamedSource{Name: "travel", Source: travel},
	).WithClock(sharedDomain.FixedClock{At: syncedAt})

	events, err := importer.Import(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "gym:a", events[0].ExternalID())
	assert.Equal(t, domain.SourcePlugin, events[0].Source())
	assert.Equal(t, "travel:b", events[1].ExternalID())
	assert.Equal(t, "(busy)", events[1].Title())
	assert.True(t, events[1].IsAllDay())
	assert.Equal(t, 48*time.Hour, events[1].Duration())
}

func TestImporter_FailingPlugin(t *testing.T) {
	importer := NewImporter(uuid.New(), nil,
		NamedSource{Name: "ok", Source: &staticSource{}},
		NamedSource{Name: "down", Source: &staticSource{err: errors.New("timeout")}},
	)

	_, err := importer.Import(context.Background(), from, to)

	assert.ErrorIs(t, err, application.ErrSourceUnavailable)
}

func TestValidateBinaryPath(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "calendar-plugin-ics")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o700))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"regular file", binary, false},
		{"empty", "", true},
		{"relative", "calendar-plugin-ics", true},
		{"directory", dir, true},
		{"missing", filepath.Join(dir, "nope"), true},
		{"shell characters", binary + ";id", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateBinaryPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
