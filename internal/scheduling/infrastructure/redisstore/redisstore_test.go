package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestLeaseLock(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	lock := NewLeaseLock(client, time.Minute, 0)
	userID := uuid.New()

	release, err := lock.Acquire(ctx, userID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKey(userID)))

	_, err = lock.Acquire(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)

	other, err := lock.Acquire(ctx, uuid.New())
	require.NoError(t, err, "locks are per user")
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(lockKey(userID)))

	again, err := lock.Acquire(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLeaseLock_ReleaseKeepsForeignLease(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	lock := NewLeaseLock(client, time.Second, 0)
	userID := uuid.New()

	release, err := lock.Acquire(ctx, userID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	takeover, err := lock.Acquire(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists(lockKey(userID)), "stale release must not drop the new holder")
	require.NoError(t, takeover(ctx))
}

func TestSnapshotCache(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	cache := NewSnapshotCache(client, time.Hour)
	userID := uuid.New()

	_, ok, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	block, err := domain.NewTimeBlock(domain.BlockSpec{
		UserID: userID,
		TaskID: uuid.New(),
		Title:  "draft memo",
		Start:  start,
		End:    start.Add(time.Hour),
		Type:   domain.BlockTypeAdmin,
	}, start.Add(-time.Hour))
	require.NoError(t, err)

	snapshot := domain.NewScheduleSnapshot(userID, domain.TriggerCreated, start, []domain.TimeBlock{block})
	require.NoError(t, cache.Put(ctx, snapshot))

	got, ok, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.TriggerCreated, got.Trigger)
	require.Len(t, got.TimeBlocks(), 1)
	assert.Equal(t, block.ID(), got.TimeBlocks()[0].ID())
	assert.True(t, block.Start().Equal(got.TimeBlocks()[0].Start()))
	assert.Equal(t, time.Hour, mr.TTL(snapshotKey(userID)))

	require.NoError(t, cache.Invalidate(ctx, userID))
	_, ok, err = cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshotCache_Expires(t *testing.T) {
	ctx := context.Background()
	client, mr := setupRedis(t)
	cache := NewSnapshotCache(client, time.Minute)
	userID := uuid.New()

	require.NoError(t, cache.Put(ctx, domain.NewScheduleSnapshot(userID, domain.TriggerTick, time.Now(), nil)))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}
