package outbox

import (
	"context"
	"time"
)

// Repository persists outbox messages.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	// SaveBatch joins the transaction in ctx, or opens its own.
	SaveBatch(ctx context.Context, msgs []*Message) error
	// GetUnpublished returns pending messages whose retry time has come, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld removes published messages older than the cutoff.
	DeleteOld(ctx context.Context, olderThan time.Time) (int64, error)
}
