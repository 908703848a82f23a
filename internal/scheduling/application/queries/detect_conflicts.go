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

// ErrInvalidRange is returned when To is not after From.
var ErrInvalidRange = errors.New("invalid date range")

// DetectConflictsQuery asks for conflicts between From and To. Zero values
// default to the next seven days.
type DetectConflictsQuery struct {
	UserID uuid.UUID
	From   time.Time
	To     time.Time
}

// DetectConflictsHandler compares stored blocks with stored calendar events.
type DetectConflictsHandler struct {
	blocks   domain.BlockRepository
	events   calendarDomain.EventRepository
	prefs    domain.PreferencesRepository
	defaults domain.UserPreferences
	policy   domain.ConflictPolicy
	clock    sharedDomain.Clock
}

// NewDetectConflictsHandler creates a DetectConflictsHandler.
func NewDetectConflictsHandler(
	blocks domain.BlockRepository,
	events calendarDomain.EventRepository,
	prefs domain.PreferencesRepository,
	defaults domain.UserPreferences,
	policy domain.ConflictPolicy,
	clock sharedDomain.Clock,
) *DetectConflictsHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if policy == "" {
		policy = domain.PolicyNotifyOnly
	}
	return &DetectConflictsHandler{
		blocks:   blocks,
		events:   events,
		prefs:    prefs,
		defaults: defaults,
		policy:   policy,
		clock:    clock,
	}
}

// Handle returns every block/event overlap in the range.
func (h *DetectConflictsHandler) Handle(ctx context.Context, query DetectConflictsQuery) (*ConflictsDTO, error) {
	from, to := query.From, query.To
	if from.IsZero() {
		from = h.clock.Now()
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 7)
	}
	if !to.After(from) {
		return nil, ErrInvalidRange
	}

	prefs, err := domain.LoadPreferences(ctx, h.prefs, query.UserID, h.defaults)
	if err != nil {
		return nil, err
	}
	blocks, err := h.blocks.FindInRange(ctx, query.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	events, err := h.events.FindInRange(ctx, query.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load calendar events: %w", err)
	}

	conflicts := services.DetectSchedulingConflicts(blocks, events, prefs.Location())
	dto := &ConflictsDTO{Policy: string(h.policy), Conflicts: make([]ConflictDTO, 0, len(conflicts))}
	for _, c := range conflicts {
		dto.Conflicts = append(dto.Conflicts, ToConflictDTO(c))
	}
	return dto, nil
}
