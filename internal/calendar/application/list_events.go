package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

const defaultListDays = 7

// EventDTO is a stored calendar event as shown to users.
type EventDTO struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	AllDay     bool      `json:"all_day"`
	Manual     bool      `json:"manual"`
}

// ListEventsQuery selects events overlapping [From, To). A zero From
// starts at now; a zero To covers the next seven days.
type ListEventsQuery struct {
	UserID uuid.UUID
	From   time.Time
	To     time.Time
	Source string
}

// ListEventsHandler reads stored calendar events.
type ListEventsHandler struct {
	events domain.EventRepository
	clock  sharedDomain.Clock
}

// NewListEventsHandler creates the handler.
func NewListEventsHandler(events domain.EventRepository, clock sharedDomain.Clock) *ListEventsHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &ListEventsHandler{events: events, clock: clock}
}

// Handle returns the matching events ordered by start.
func (h *ListEventsHandler) Handle(ctx context.Context, query ListEventsQuery) ([]EventDTO, error) {
	from := query.From
	if from.IsZero() {
		from = h.clock.Now()
	}
	to := query.To
	if to.IsZero() {
		to = from.AddDate(0, 0, defaultListDays)
	}
	if !to.After(from) {
		return nil, errors.New("end of range must be after its start")
	}

	var source domain.Source
	if query.Source != "" {
		parsed, err := domain.ParseSource(query.Source)
		if err != nil {
			return nil, err
		}
		source = parsed
	}

	events, err := h.events.FindInRange(ctx, query.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		if source != "" && e.Source() != source {
			continue
		}
		dtos = append(dtos, ToEventDTO(e))
	}
	slices.SortFunc(dtos, func(a, b EventDTO) int { return a.Start.Compare(b.Start) })
	return dtos, nil
}

// ToEventDTO converts an event.
func ToEventDTO(e *domain.Event) EventDTO {
	return EventDTO{
		ID:         e.ID(),
		Source:     e.Source().String(),
		ExternalID: e.ExternalID(),
		Title:      e.Title(),
		Start:      e.Start(),
		End:        e.End(),
		AllDay:     e.IsAllDay(),
		Manual:     IsManualEvent(e),
	}
}

// IsManualEvent reports whether e was entered by hand.
func IsManualEvent(e *domain.Event) bool {
	return e.Source() == domain.SourceManual && strings.HasPrefix(e.ExternalID(), ManualExternalIDPrefix)
}
