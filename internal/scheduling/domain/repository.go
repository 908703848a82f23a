package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// BlockRepository persists the block set. The scheduler always replaces a
// user's whole set.
type BlockRepository interface {
	ReplaceAll(ctx context.Context, userID uuid.UUID, blocks []TimeBlock) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]TimeBlock, error)
	FindInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]TimeBlock, error)
	// FindStartingBetween returns blocks of every user starting in (from, to].
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]TimeBlock, error)
}

// ErrLockNotAcquired is returned when another process holds the recompute
// lease for a user.
var ErrLockNotAcquired = errors.New("schedule lock not acquired")

// ScheduleLock serializes recomputes for one user across processes.
type ScheduleLock interface {
	// Acquire returns a release func, or ErrLockNotAcquired.
	Acquire(ctx context.Context, userID uuid.UUID) (release func(context.Context) error, err error)
}

// SnapshotCache keeps the latest published block set per user.
type SnapshotCache interface {
	// Get reports false on a miss.
	Get(ctx context.Context, userID uuid.UUID) (ScheduleSnapshot, bool, error)
	Put(ctx context.Context, snapshot ScheduleSnapshot) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// TriggerSink accepts triggers for a user's schedule, either running them
// directly or queueing them for a single writer.
type TriggerSink interface {
	Submit(ctx context.Context, userID uuid.UUID, trigger Trigger) error
}
