package queries

import (
	"context"
	"testing"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConflictsHandler_Handle(t *testing.T) {
	ctx := context.Background()
	clock := sharedDomain.FixedClock{At: monday}
	block := newBlock(t, "report", at(2, 10, 0), at(2, 11, 0))
	blocks := &fakeBlocks{blocks: []domain.TimeBlock{block}}
	events := &fakeEvents{events: []*calendarDomain.Event{
		newEvent(t, "standup", at(2, 10, 30), at(2, 11, 30)),
		newEvent(t, "lunch", at(2, 12, 0), at(2, 13, 0)),
	}}

	t.Run("reports overlaps with the policy", func(t *testing.T) {
		h := NewDetectConflictsHandler(blocks, events, nil, domain.DefaultPreferences(), "", clock)

		got, err := h.Handle(ctx, DetectConflictsQuery{UserID: userID})

		require.NoError(t, err)
		assert.Equal(t, string(domain.PolicyNotifyOnly), got.Policy)
		require.Len(t, got.Conflicts, 1)
		c := got.Conflicts[0]
		assert.Equal(t, block.ID(), c.BlockID)
		assert.Equal(t, "standup", c.EventTitle)
		assert.Equal(t, "google", c.Source)
		assert.Equal(t, 30, c.OverlapMinutes)
	})

	t.Run("range outside the block", func(t *testing.T) {
		h := NewDetectConflictsHandler(blocks, events, nil, domain.DefaultPreferences(), domain.PolicyBlockTime, clock)

		got, err := h.Handle(ctx, DetectConflictsQuery{UserID: userID, From: at(4, 0, 0), To: at(5, 0, 0)})

		require.NoError(t, err)
		assert.Equal(t, string(domain.PolicyBlockTime), got.Policy)
		assert.Empty(t, got.Conflicts)
	})

	t.Run("invalid range", func(t *testing.T) {
		h := NewDetectConflictsHandler(blocks, events, nil, domain.DefaultPreferences(), "", clock)

		_, err := h.Handle(ctx, DetectConflictsQuery{UserID: userID, From: at(5, 0, 0), To: at(4, 0, 0)})

		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}
