package application_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddManualEventHandler(t *testing.T) {
	ctx := context.Background()
	events := &memEvents{}
	sink := &recordingSink{}
	handler := application.NewAddManualEventHandler(events, sink, sharedDomain.FixedClock{At: now})

	event, err := handler.Handle(ctx, application.AddManualEventCommand{
		UserID: userID,
		Title:  "dentist",
		Start:  now.Add(3 * time.Hour),
		End:    now.Add(4 * time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.SourceManual, event.Source())
	assert.True(t, strings.HasPrefix(event.ExternalID(), application.ManualExternalIDPrefix))
	stored, _ := events.FindBySource(ctx, userID, domain.SourceManual)
	assert.Len(t, stored, 1)
	assert.Equal(t, []schedulingDomain.Trigger{schedulingDomain.CalendarSynced{Time: now}}, sink.triggers)
}

func TestAddManualEventHandler_AllDay(t *testing.T) {
	handler := application.NewAddManualEventHandler(&memEvents{}, nil, sharedDomain.FixedClock{At: now})
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	event, err := handler.Handle(context.Background(), application.AddManualEventCommand{
		UserID:   userID,
		Title:    "offsite",
		Start:    now,
		End:      now.AddDate(0, 0, 1),
		AllDay:   true,
		Location: berlin,
	})

	require.NoError(t, err)
	assert.True(t, event.IsAllDay())
	assert.Equal(t, 48*time.Hour, event.Duration())
}

func TestAddManualEventHandler_Invalid(t *testing.T) {
	handler := application.NewAddManualEventHandler(&memEvents{}, nil, nil)

	_, err := handler.Handle(context.Background(), application.AddManualEventCommand{UserID: userID, Title: " ", Start: now, End: now.Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)

	_, err = handler.Handle(context.Background(), application.AddManualEventCommand{UserID: userID, Title: "x", Start: now, End: now})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}
