package dispatch_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/application/dispatch"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowSink struct {
	mu        sync.Mutex
	kinds     []domain.TriggerKind
	corr      []string
	users     []string
	active    atomic.Int32
	maxActive atomic.Int32
}

func (s *slowSink) Submit(ctx context.Context, _ uuid.UUID, trigger domain.Trigger) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		m := s.maxActive.Load()
		if n <= m || s.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, trigger.Kind())
	s.corr = append(s.corr, observability.CorrelationIDFromContext(ctx))
	s.users = append(s.users, observability.UserIDFromContext(ctx))
	return nil
}

func (s *slowSink) seen() []domain.TriggerKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TriggerKind(nil), s.kinds...)
}

func TestDispatcher_RunsTriggersOneAtATime(t *testing.T) {
	sink := &slowSink{}
	d := dispatch.New(sink, 8, nil, nil)
	userID := uuid.New()
	now := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	var wg sync.WaitGroup
	for _, trig := range []domain.Trigger{
		domain.Tick{Time: now},
		domain.Rebuild{Time: now},
		domain.CalendarSynced{Time: now},
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Submit(context.Background(), userID, trig))
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return len(sink.seen()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), sink.maxActive.Load())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestDispatcher_PropagatesCorrelationAndUser(t *testing.T) {
	sink := &slowSink{}
	d := dispatch.New(sink, 1, nil, nil)
	ctx := observability.WithCorrelationID(context.Background(), "corr-42")
	userID := uuid.New()

	require.NoError(t, d.Submit(ctx, userID, domain.Tick{Time: time.Now()}))
	d.Stop()
	require.NoError(t, d.Run(context.Background()))

	require.Len(t, sink.corr, 1)
	assert.Equal(t, "corr-42", sink.corr[0])
	assert.Equal(t, userID.String(), sink.users[0])
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	sink := &slowSink{}
	metrics := observability.NewInMemoryMetrics()
	d := dispatch.New(sink, 4, metrics, nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Submit(context.Background(), uuid.New(), domain.Tick{Time: time.Now()}))
	}
	assert.Equal(t, 3, d.Pending())
	assert.Equal(t, float64(3), metrics.GetGauge(observability.MetricDispatchQueue))

	d.Stop()
	require.NoError(t, d.Run(context.Background()))

	assert.Len(t, sink.seen(), 3)
	assert.Zero(t, d.Pending())
	assert.ErrorIs(t, d.Submit(context.Background(), uuid.New(), domain.Tick{Time: time.Now()}), dispatch.ErrStopped)
}

func TestDispatcher_SubmitRespectsContextWhenFull(t *testing.T) {
	d := dispatch.New(&slowSink{}, 1, nil, nil)
	require.NoError(t, d.Submit(context.Background(), uuid.New(), domain.Tick{Time: time.Now()}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := d.Submit(ctx, uuid.New(), domain.Tick{Time: time.Now()})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
