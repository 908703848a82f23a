package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blockNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func block(t *testing.T, taskID uuid.UUID, startHour, endHour int) domain.TimeBlock {
	t.Helper()
	b, err := domain.NewTimeBlock(domain.BlockSpec{
		UserID: uuid.New(),
		TaskID: taskID,
		Title:  "work",
		Start:  time.Date(2026, 3, 2, startHour, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 3, 2, endHour, 0, 0, 0, time.UTC),
		Type:   domain.BlockTypeAdmin,
	}, blockNow)
	require.NoError(t, err)
	return b
}

func TestNewTimeBlock(t *testing.T) {
	b := block(t, uuid.New(), 9, 11)
	assert.NotEqual(t, uuid.Nil, b.ID())
	assert.Equal(t, 120, b.Minutes())
	assert.Equal(t, domain.BlockTypeAdmin, b.Type())
	assert.True(t, b.Contains(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	assert.False(t, b.Contains(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)))
}

func TestNewTimeBlock_InvalidTimeRange(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err := domain.NewTimeBlock(domain.BlockSpec{Start: start, End: start}, blockNow)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestTimeBlock_OverlapsWith(t *testing.T) {
	a := block(t, uuid.New(), 9, 11)
	assert.True(t, a.OverlapsWith(block(t, uuid.New(), 10, 12)))
	assert.False(t, a.OverlapsWith(block(t, uuid.New(), 11, 12)), "touching blocks do not overlap")
}

func TestRehydrateTimeBlock_KeepsIdentity(t *testing.T) {
	b := block(t, uuid.New(), 9, 10)
	again := domain.RehydrateTimeBlock(b.ID(), b.Spec(), b.CreatedAt())
	assert.Equal(t, b, again)
}

func TestSchedulerState_Blocks(t *testing.T) {
	taskID := uuid.New()
	late := block(t, taskID, 14, 15)
	early := block(t, taskID, 9, 10)
	other := block(t, uuid.New(), 11, 12)
	state := domain.SchedulerState{Blocks: []domain.TimeBlock{late, other, early}}

	got := state.BlocksForTask(taskID)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID(), got[0].ID())

	rest := state.WithoutTaskBlocks(taskID)
	require.Len(t, rest, 1)
	assert.Equal(t, other.ID(), rest[0].ID())
	assert.Len(t, state.Blocks, 3, "input untouched")
}

func TestParseConflictPolicy(t *testing.T) {
	p, err := domain.ParseConflictPolicy("")
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyNotifyOnly, p)

	p, err = domain.ParseConflictPolicy("Block-Time")
	require.NoError(t, err)
	assert.Equal(t, domain.PolicyBlockTime, p)

	_, err = domain.ParseConflictPolicy("shrug")
	assert.ErrorIs(t, err, domain.ErrInvalidConflictPolicy)
}

func TestConflict_Overlap(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC) }
	c := domain.Conflict{BlockStart: at(9, 0), BlockEnd: at(11, 0), EventStart: at(10, 30), EventEnd: at(12, 0)}
	assert.Equal(t, 30*time.Minute, c.Overlap())
}

func TestAllocation_Partial(t *testing.T) {
	r := domain.Report{}
	r.AddAllocation(domain.Allocation{Requested: 60, Allocated: 60})
	r.AddAllocation(domain.Allocation{Requested: 600, Allocated: 240})
	assert.Len(t, r.Allocations, 2)
	require.Len(t, r.UnderScheduled, 1)
	assert.Equal(t, 360, r.UnderScheduled[0].Missing())
}
