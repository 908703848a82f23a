package commands

import (
	"context"
	"testing"
	"time"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	userID = uuid.MustParse("3f6c1a52-8d0e-4b7a-9c21-6e5d4f3a2b10")
	monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
)

type recomputeFixture struct {
	tasks   *memTasks
	blocks  *memBlocks
	events  *memEvents
	outbox  *outbox.InMemoryRepository
	lock    *stubLock
	cache   *memCache
	metrics *observability.InMemoryMetrics
	handler *RecomputeHandler
}

func newRecomputeFixture(prefs *domain.UserPreferences, tasks ...*task.Task) *recomputeFixture {
	f := &recomputeFixture{
		tasks:   newMemTasks(tasks...),
		blocks:  newMemBlocks(),
		events:  &memEvents{},
		outbox:  outbox.NewInMemoryRepository(),
		lock:    &stubLock{},
		cache:   newMemCache(),
		metrics: observability.NewInMemoryMetrics(),
	}
	f.handler = NewRecomputeHandler(RecomputeDeps{
		Tasks:              f.tasks,
		Blocks:             f.blocks,
		Events:             f.events,
		Outbox:             f.outbox,
		UnitOfWork:         sharedApplication.NoopUnitOfWork{},
		Lock:               f.lock,
		Cache:              f.cache,
		Metrics:            f.metrics,
		DefaultPreferences: prefs,
	})
	return f
}

func newTask(t *testing.T, title string, minutes int) *task.Task {
	t.Helper()
	d, err := vo.NewDuration(minutes)
	require.NoError(t, err)
	tk, err := task.NewTask(userID, title, d, monday.Add(-240*time.Hour))
	require.NoError(t, err)
	tk.ClearDomainEvents()
	return tk
}

func TestRecomputeHandler_Created(t *testing.T) {
	ctx := context.Background()
	tk := newTask(t, "draft memo", 60)
	f := newRecomputeFixture(nil, tk)

	result, err := f.handler.Handle(ctx, RecomputeCommand{
		UserID:  userID,
		Trigger: domain.Created{TaskID: tk.ID(), Time: monday},
	})

	require.NoError(t, err)
	require.Len(t, result.Report.Allocations, 1)
	stored, _ := f.blocks.FindByUser(ctx, userID)
	assert.Equal(t, result.Blocks, stored)
	assert.NotEmpty(t, stored)

	saved, err := f.tasks.FindByID(ctx, tk.ID())
	require.NoError(t, err)
	assert.Equal(t, 50, saved.Priority().Score())

	assert.Contains(t, f.outbox.RoutingKeys(), domain.RoutingKeyScheduleRecomputed)
	for _, msg := range f.outbox.Messages() {
		assert.Contains(t, string(msg.Metadata), userID.String())
	}

	snapshot, ok, err := f.cache.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.TriggerCreated, snapshot.Trigger)
	assert.Len(t, snapshot.Blocks, len(stored))

	assert.Equal(t, 1, f.lock.acquired)
	assert.Equal(t, 1, f.lock.released)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricRecomputes, observability.T("trigger", "created")))
	assert.Len(t, f.metrics.GetTimings(observability.MetricRecomputeDuration, observability.T("trigger", "created")), 1)
}

func TestRecomputeHandler_LockContention(t *testing.T) {
	tk := newTask(t, "draft memo", 60)
	f := newRecomputeFixture(nil, tk)
	f.lock.err = domain.ErrLockNotAcquired

	_, err := f.handler.Handle(context.Background(), RecomputeCommand{
		UserID:  userID,
		Trigger: domain.Rebuild{Time: monday},
	})

	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricLockContention))
	assert.Empty(t, f.outbox.Messages())
}

func TestRecomputeHandler_CalendarSyncedPublishesConflicts(t *testing.T) {
	ctx := context.Background()
	tk := newTask(t, "fix outage", 60)
	due := monday.Add(30 * time.Hour)
	require.NoError(t, tk.SetDueDate(&due, monday))
	tk.ClearDomainEvents()
	f := newRecomputeFixture(nil, tk)

	first, err := f.handler.Handle(ctx, RecomputeCommand{UserID: userID, Trigger: domain.Rebuild{Time: monday}})
	require.NoError(t, err)
	require.NotEmpty(t, first.Blocks)
	placed := first.Blocks[0]

	meeting, err := calendarDomain.NewEvent(userID, calendarDomain.SourceGoogle, "evt-1", "all hands", placed.Start(), placed.End(), monday)
	require.NoError(t, err)
	require.NoError(t, f.events.Save(ctx, meeting))

	result, err := f.handler.Handle(ctx, RecomputeCommand{UserID: userID, Trigger: domain.CalendarSynced{Time: monday}})

	require.NoError(t, err)
	require.Len(t, result.Report.DetectedConflicts, 1)
	assert.Contains(t, f.outbox.RoutingKeys(), domain.RoutingKeyConflictDetected)
	for _, b := range result.Blocks {
		assert.False(t, meeting.Overlaps(b.Start(), b.End()))
	}
}

func TestRecomputeHandler_SkippedTickPublishesNothing(t *testing.T) {
	prefs := domain.DefaultPreferences()
	prefs.Scheduling.AutoReschedule = false
	tk := newTask(t, "tax filing", 30)
	f := newRecomputeFixture(&prefs, tk)

	result, err := f.handler.Handle(context.Background(), RecomputeCommand{
		UserID:  userID,
		Trigger: domain.Tick{Time: monday},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Report.Skipped)
	assert.Empty(t, f.outbox.Messages())
}

func TestRecomputeHandler_Submit(t *testing.T) {
	tk := newTask(t, "draft memo", 60)
	f := newRecomputeFixture(nil, tk)

	var sink domain.TriggerSink = f.handler
	require.NoError(t, sink.Submit(context.Background(), userID, domain.Created{TaskID: tk.ID(), Time: monday}))

	stored, _ := f.blocks.FindByUser(context.Background(), userID)
	assert.NotEmpty(t, stored)
}

func TestRecomputeHandler_NilTrigger(t *testing.T) {
	f := newRecomputeFixture(nil)

	_, err := f.handler.Handle(context.Background(), RecomputeCommand{UserID: userID})

	assert.Error(t, err)
}
