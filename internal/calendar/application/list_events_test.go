package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEventsHandler(t *testing.T) {
	ctx := context.Background()
	events := &memEvents{}
	require.NoError(t, events.Save(ctx, newCalEvent(t, domain.SourceGoogle, "late", 5)))
	require.NoError(t, events.Save(ctx, newCalEvent(t, domain.SourceCalDAV, "early", 1)))
	require.NoError(t, events.Save(ctx, newCalEvent(t, domain.SourceGoogle, "next-month", 24*40)))

	add := application.NewAddManualEventHandler(events, nil, sharedDomain.FixedClock{At: now})
	_, err := add.Handle(ctx, application.AddManualEventCommand{
		UserID: userID,
		Title:  "gym",
		Start:  now.Add(2 * time.Hour),
		End:    now.Add(3 * time.Hour),
	})
	require.NoError(t, err)

	handler := application.NewListEventsHandler(events, sharedDomain.FixedClock{At: now})

	t.Run("default range is ordered by start", func(t *testing.T) {
		dtos, err := handler.Handle(ctx, application.ListEventsQuery{UserID: userID})
		require.NoError(t, err)
		require.Len(t, dtos, 3)
		assert.Equal(t, "event early", dtos[0].Title)
		assert.Equal(t, "gym", dtos[1].Title)
		assert.True(t, dtos[1].Manual)
		assert.Equal(t, "event late", dtos[2].Title)
		assert.False(t, dtos[2].Manual)
	})

	t.Run("source filter", func(t *testing.T) {
		dtos, err := handler.Handle(ctx, application.ListEventsQuery{UserID: userID, Source: "google"})
		require.NoError(t, err)
		require.Len(t, dtos, 1)
		assert.Equal(t, "google", dtos[0].Source)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := handler.Handle(ctx, application.ListEventsQuery{UserID: userID, Source: "fax"})
		assert.ErrorIs(t, err, domain.ErrInvalidSource)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := handler.Handle(ctx, application.ListEventsQuery{UserID: userID, From: now, To: now.Add(-time.Hour)})
		assert.Error(t, err)
	})
}
