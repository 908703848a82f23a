package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
)

// GetScheduleQuery asks for one day of blocks. A zero Date means today.
type GetScheduleQuery struct {
	UserID uuid.UUID
	Date   time.Time
}

// GetScheduleHandler reads a day's blocks, preferring the snapshot cache.
type GetScheduleHandler struct {
	blocks   domain.BlockRepository
	cache    domain.SnapshotCache
	prefs    domain.PreferencesRepository
	defaults domain.UserPreferences
	clock    sharedDomain.Clock
	logger   *slog.Logger
}

// NewGetScheduleHandler creates a GetScheduleHandler. cache and prefs may be nil.
func NewGetScheduleHandler(
	blocks domain.BlockRepository,
	cache domain.SnapshotCache,
	prefs domain.PreferencesRepository,
	defaults domain.UserPreferences,
	clock sharedDomain.Clock,
	logger *slog.Logger,
) *GetScheduleHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GetScheduleHandler{
		blocks:   blocks,
		cache:    cache,
		prefs:    prefs,
		defaults: defaults,
		clock:    clock,
		logger:   logger,
	}
}

// Handle returns the blocks overlapping the requested day in the user's
// timezone, ordered by start.
func (h *GetScheduleHandler) Handle(ctx context.Context, query GetScheduleQuery) (*ScheduleDTO, error) {
	prefs, err := domain.LoadPreferences(ctx, h.prefs, query.UserID, h.defaults)
	if err != nil {
		return nil, err
	}
	date := query.Date
	if date.IsZero() {
		date = h.clock.Now()
	}
	loc := prefs.Location()
	from, to := dayRange(date, loc)

	blocks, fromCache, err := h.load(ctx, query.UserID, from, to)
	if err != nil {
		return nil, err
	}
	domain.SortBlocks(blocks)

	dto := &ScheduleDTO{
		Date:      from.Format(time.DateOnly),
		Timezone:  loc.String(),
		Blocks:    make([]BlockDTO, 0, len(blocks)),
		FromCache: fromCache,
	}
	for _, b := range blocks {
		dto.Blocks = append(dto.Blocks, ToBlockDTO(b))
		dto.TotalMinutes += b.Minutes()
	}
	return dto, nil
}

func (h *GetScheduleHandler) load(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.TimeBlock, bool, error) {
	if h.cache != nil {
		snapshot, ok, err := h.cache.Get(ctx, userID)
		if err != nil {
			h.logger.Warn("schedule cache unavailable", "user_id", userID, "error", err)
		} else if ok {
			var blocks []domain.TimeBlock
			for _, b := range snapshot.TimeBlocks() {
				if b.Overlaps(from, to) {
					blocks = append(blocks, b)
				}
			}
			return blocks, true, nil
		}
	}

	blocks, err := h.blocks.FindInRange(ctx, userID, from, to)
	if err != nil {
		return nil, false, fmt.Errorf("load blocks: %w", err)
	}
	return blocks, false, nil
}
