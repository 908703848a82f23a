package outbox

import (
	"context"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgInsert = `
	INSERT INTO outbox_messages (
		event_id, aggregate_type, aggregate_id, routing_key, payload, metadata, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

// PostgresRepository stores outbox messages in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL outbox repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Save(ctx context.Context, msg *Message) error {
	return insertPG(ctx, persistence.Executor(ctx, r.pool), msg)
}

func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if info, ok := persistence.TxInfoFromContext(ctx); ok {
		for _, msg := range msgs {
			if err := insertPG(ctx, info.Tx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, msg := range msgs {
		if err := insertPG(ctx, tx, msg); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertPG(ctx context.Context, exec persistence.DBExecutor, msg *Message) error {
	var metadata []byte
	if len(msg.Metadata) > 0 {
		metadata = msg.Metadata
	}
	return exec.QueryRow(ctx, pgInsert,
		msg.EventID, msg.AggregateType, msg.AggregateID, msg.RoutingKey,
		[]byte(msg.Payload), metadata, msg.CreatedAt,
	).Scan(&msg.ID)
}

func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, metadata,
		       created_at, published_at, next_retry_at, retry_count, last_error,
		       dead_lettered_at, dead_letter_reason
		FROM outbox_messages
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Message, error) {
		var msg Message
		var payload, metadata []byte
		err := row.Scan(&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.RoutingKey,
			&payload, &metadata, &msg.CreatedAt, &msg.PublishedAt, &msg.NextRetryAt, &msg.RetryCount,
			&msg.LastError, &msg.DeadLetteredAt, &msg.DeadLetterReason)
		msg.Payload = payload
		msg.Metadata = metadata
		return &msg, err
	})
}

func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE outbox_messages SET published_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE outbox_messages
		 SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3
		 WHERE id = $1`, id, errMsg, nextRetryAt)
	return err
}

func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`UPDATE outbox_messages
		 SET retry_count = retry_count + 1, last_error = $2, dead_lettered_at = NOW(), dead_letter_reason = $2
		 WHERE id = $1`, id, reason)
	return err
}

func (r *PostgresRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx,
		`DELETE FROM outbox_messages WHERE published_at IS NOT NULL AND published_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
