package services

import (
	"testing"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSchedulingConflicts(t *testing.T) {
	taskID := uuid.New()
	block := newBlock(t, taskID, at(2, 10, 0), at(2, 11, 0))

	tests := []struct {
		name  string
		event *calendarDomain.Event
		want  int
	}{
		{"overlapping", newEvent(t, "sync", at(2, 10, 30), at(2, 11, 30)), 1},
		{"containing", newEvent(t, "workshop", at(2, 9, 0), at(2, 12, 0)), 1},
		{"adjacent before", newEvent(t, "early", at(2, 9, 0), at(2, 10, 0)), 0},
		{"adjacent after", newEvent(t, "late", at(2, 11, 0), at(2, 12, 0)), 0},
		{"other day", newEvent(t, "tomorrow", at(3, 10, 0), at(3, 11, 0)), 0},
		{"spanning days", newEvent(t, "conference", at(1, 8, 0), at(3, 18, 0)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectSchedulingConflicts([]schedulingDomain.TimeBlock{block}, []*calendarDomain.Event{tt.event}, time.UTC)
			assert.Len(t, got, tt.want)
		})
	}

	t.Run("conflict details", func(t *testing.T) {
		event := newEvent(t, "sync", at(2, 10, 30), at(2, 11, 30))

		got := DetectSchedulingConflicts([]schedulingDomain.TimeBlock{block}, []*calendarDomain.Event{event}, nil)

		require.Len(t, got, 1)
		c := got[0]
		assert.Equal(t, block.ID(), c.BlockID)
		assert.Equal(t, taskID, c.TaskID)
		assert.Equal(t, event.ID(), c.EventID)
		assert.Equal(t, "sync", c.EventTitle)
		assert.Equal(t, calendarDomain.SourceGoogle, c.Source)
		assert.Equal(t, 30*time.Minute, c.Overlap())
	})
}
