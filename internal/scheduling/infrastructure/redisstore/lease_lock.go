// Package redisstore keeps schedule coordination state in Redis.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLeaseTTL bounds how long a crashed holder keeps the lock.
	DefaultLeaseTTL = 30 * time.Second
	// DefaultLeaseWait is how long Acquire retries before giving up.
	DefaultLeaseWait = 5 * time.Second

	leaseRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LeaseLock implements domain.ScheduleLock with SET NX PX.
type LeaseLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewLeaseLock creates a LeaseLock. A zero ttl uses DefaultLeaseTTL, a zero
// wait fails fast and a negative wait uses DefaultLeaseWait.
func NewLeaseLock(client *redis.Client, ttl, wait time.Duration) *LeaseLock {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	if wait < 0 {
		wait = DefaultLeaseWait
	}
	return &LeaseLock{client: client, ttl: ttl, wait: wait}
}

func lockKey(userID uuid.UUID) string {
	return fmt.Sprintf("cadence:lock:schedule:%s", userID)
}

// Acquire takes the user's lease, retrying until the wait elapses. It returns
// domain.ErrLockNotAcquired if another holder keeps it.
func (l *LeaseLock) Acquire(ctx context.Context, userID uuid.UUID) (func(context.Context) error, error) {
	key := lockKey(userID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire schedule lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, domain.ErrLockNotAcquired
		}

		timer := time.NewTimer(leaseRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
