package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultSnapshotTTL is how long a published block set is served from cache.
const DefaultSnapshotTTL = 24 * time.Hour

// SnapshotCache implements domain.SnapshotCache with JSON values.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a SnapshotCache.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(userID uuid.UUID) string {
	return fmt.Sprintf("cadence:schedule:%s", userID)
}

// Get returns false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, userID uuid.UUID) (domain.ScheduleSnapshot, bool, error) {
	data, err := c.client.Get(ctx, snapshotKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ScheduleSnapshot{}, false, nil
	}
	if err != nil {
		return domain.ScheduleSnapshot{}, false, fmt.Errorf("get schedule snapshot: %w", err)
	}

	var snapshot domain.ScheduleSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.ScheduleSnapshot{}, false, fmt.Errorf("decode schedule snapshot: %w", err)
	}
	return snapshot, true, nil
}

// Put stores snapshot under its user.
func (c *SnapshotCache) Put(ctx context.Context, snapshot domain.ScheduleSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode schedule snapshot: %w", err)
	}
	return c.client.Set(ctx, snapshotKey(snapshot.UserID), data, c.ttl).Err()
}

// Invalidate drops the user's snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, snapshotKey(userID)).Err()
}
