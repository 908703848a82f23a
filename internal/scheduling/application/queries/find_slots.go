package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// ErrInvalidMinutes is returned for a non-positive slot length.
var ErrInvalidMinutes = errors.New("minutes must be positive")

// FindSlotsQuery asks for free slots of at least Minutes on Date. DeepWork
// applies the deep-work margins and the configured minimum.
type FindSlotsQuery struct {
	UserID   uuid.UUID
	Date     time.Time
	Minutes  int
	DeepWork bool
}

// FindSlotsHandler lists free time around blocks and calendar events.
type FindSlotsHandler struct {
	blocks   domain.BlockRepository
	events   calendarDomain.EventRepository
	prefs    domain.PreferencesRepository
	defaults domain.UserPreferences
	clock    sharedDomain.Clock
}

// NewFindSlotsHandler creates a FindSlotsHandler.
func NewFindSlotsHandler(
	blocks domain.BlockRepository,
	events calendarDomain.EventRepository,
	prefs domain.PreferencesRepository,
	defaults domain.UserPreferences,
	clock sharedDomain.Clock,
) *FindSlotsHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &FindSlotsHandler{blocks: blocks, events: events, prefs: prefs, defaults: defaults, clock: clock}
}

// Handle returns the slots in start order. Nothing before now is offered.
func (h *FindSlotsHandler) Handle(ctx context.Context, query FindSlotsQuery) ([]SlotDTO, error) {
	if query.Minutes <= 0 {
		return nil, ErrInvalidMinutes
	}
	prefs, err := domain.LoadPreferences(ctx, h.prefs, query.UserID, h.defaults)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	date := query.Date
	if date.IsZero() {
		date = now
	}
	from, to := dayRange(date, prefs.Location())

	blocks, err := h.blocks.FindInRange(ctx, query.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	events, err := h.events.FindInRange(ctx, query.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load calendar events: %w", err)
	}

	finder := services.NewTimeSlotFinder(prefs, blocks, events, now)
	var slots []domain.TimeSlot
	if query.DeepWork {
		slots = finder.FindDeepWorkTimeSlots(from, max(query.Minutes, prefs.DeepWorkMinimum()))
	} else {
		slots = finder.FindAvailableTimeSlots(from, query.Minutes)
	}

	out := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotDTO{Start: s.Start, End: s.End, Minutes: s.Minutes()})
	}
	return out, nil
}
