package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// ManualExternalIDPrefix marks events entered by hand. ICS imports never
// replace them.
const ManualExternalIDPrefix = "manual:"

// AddManualEventCommand adds a hand-entered busy period.
type AddManualEventCommand struct {
	UserID uuid.UUID
	Title  string
	Start  time.Time
	End    time.Time
	// AllDay covers the days of Start through End in Location.
	AllDay   bool
	Location *time.Location
}

// AddManualEventHandler stores manual events and asks for a recompute.
type AddManualEventHandler struct {
	events domain.EventRepository
	sink   schedulingDomain.TriggerSink
	clock  sharedDomain.Clock
}

// NewAddManualEventHandler creates the handler. sink may be nil when a
// database trigger announces the change.
func NewAddManualEventHandler(events domain.EventRepository, sink schedulingDomain.TriggerSink, clock sharedDomain.Clock) *AddManualEventHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &AddManualEventHandler{events: events, sink: sink, clock: clock}
}

// Handle validates and stores the event.
func (h *AddManualEventHandler) Handle(ctx context.Context, cmd AddManualEventCommand) (*domain.Event, error) {
	now := h.clock.Now()
	externalID := ManualExternalIDPrefix + uuid.NewString()

	var (
		event *domain.Event
		err   error
	)
	if cmd.AllDay {
		event, err = domain.NewAllDayEvent(cmd.UserID, domain.SourceManual, externalID, cmd.Title, cmd.Start, cmd.End, cmd.Location, now)
	} else {
		event, err = domain.NewEvent(cmd.UserID, domain.SourceManual, externalID, cmd.Title, cmd.Start, cmd.End, now)
	}
	if err != nil {
		return nil, err
	}

	if err := h.events.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("save manual event: %w", err)
	}
	if h.sink != nil {
		if err := h.sink.Submit(ctx, cmd.UserID, schedulingDomain.CalendarSynced{Time: now}); err != nil {
			return event, fmt.Errorf("submit calendar trigger: %w", err)
		}
	}
	return event, nil
}
