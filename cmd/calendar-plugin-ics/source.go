package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/ics"
	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/plugin"
	"github.com/google/uuid"
)

// icsSource adapts the ICS importer to the plugin EventSource. The user ID is
// irrelevant here because the host re-keys every event it receives.
type icsSource struct {
	importer *ics.Importer
}

func newICSSource(location string, logger *slog.Logger) *icsSource {
	return &icsSource{importer: ics.NewImporter(location, uuid.Nil, logger)}
}

func (s *icsSource) ListEvents(ctx context.Context, from, to time.Time) ([]plugin.Event, error) {
	events, err := s.importer.Import(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]plugin.Event, 0, len(events))
	for _, e := range events {
		out = append(out, plugin.Event{
			ID:       strings.TrimPrefix(e.ExternalID(), ics.ExternalIDPrefix),
			Title:    e.Title(),
			Start:    e.Start(),
			End:      e.End(),
			AllDay:   e.IsAllDay(),
			Priority: e.Priority(),
		})
	}
	return out, nil
}
