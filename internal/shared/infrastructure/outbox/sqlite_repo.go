package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const sqliteInsert = `
	INSERT INTO outbox_messages (
		event_id, aggregate_type, aggregate_id, routing_key, payload, metadata, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

const sqliteSelect = `
	SELECT id, event_id, aggregate_type, aggregate_id, routing_key, payload, metadata,
	       created_at, published_at, next_retry_at, retry_count, last_error,
	       dead_lettered_at, dead_letter_reason
	FROM outbox_messages`

// SQLiteRepository stores outbox messages in SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a SQLite outbox repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	return r.insert(ctx, persistence.SQLiteExec(ctx, r.db), msg)
}

func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if _, ok := persistence.SQLiteTxInfoFromContext(ctx); ok {
		exec := persistence.SQLiteExec(ctx, r.db)
		for _, msg := range msgs {
			if err := r.insert(ctx, exec, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, msg := range msgs {
		if err := r.insert(ctx, tx, msg); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) insert(ctx context.Context, exec persistence.SQLiteExecutor, msg *Message) error {
	var metadata sql.NullString
	if len(msg.Metadata) > 0 {
		metadata = sql.NullString{String: string(msg.Metadata), Valid: true}
	}
	res, err := exec.ExecContext(ctx, sqliteInsert,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.RoutingKey,
		string(msg.Payload),
		metadata,
		persistence.FormatTime(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	msg.ID, err = res.LastInsertId()
	return err
}

func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := persistence.SQLiteExec(ctx, r.db).QueryContext(ctx, sqliteSelect+`
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`, persistence.FormatTime(r.now()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := persistence.SQLiteExec(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_messages SET published_at = ? WHERE id = ?`,
		persistence.FormatTime(r.now()), id)
	return err
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := persistence.SQLiteExec(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_messages
		 SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		 WHERE id = ?`,
		errMsg, persistence.FormatTime(nextRetryAt), id)
	return err
}

func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := persistence.SQLiteExec(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox_messages
		 SET retry_count = retry_count + 1, last_error = ?, dead_lettered_at = ?, dead_letter_reason = ?
		 WHERE id = ?`,
		reason, persistence.FormatTime(r.now()), reason, id)
	return err
}

func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := persistence.SQLiteExec(ctx, r.db).ExecContext(ctx,
		`DELETE FROM outbox_messages WHERE published_at IS NOT NULL AND published_at < ?`,
		persistence.FormatTime(olderThan))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSQLiteMessage(rows *sql.Rows) (*Message, error) {
	var (
		msg                              Message
		eventID, aggregateID             string
		payload, createdAt               string
		metadata, publishedAt, nextRetry sql.NullString
		lastError, deadAt, deadReason    sql.NullString
	)
	if err := rows.Scan(&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.RoutingKey,
		&payload, &metadata, &createdAt, &publishedAt, &nextRetry, &msg.RetryCount,
		&lastError, &deadAt, &deadReason); err != nil {
		return nil, err
	}

	var err error
	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("parse event id: %w", err)
	}
	if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, fmt.Errorf("parse aggregate id: %w", err)
	}
	if msg.CreatedAt, err = persistence.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if msg.PublishedAt, err = persistence.ParseNullTime(publishedAt); err != nil {
		return nil, err
	}
	if msg.NextRetryAt, err = persistence.ParseNullTime(nextRetry); err != nil {
		return nil, err
	}
	if msg.DeadLetteredAt, err = persistence.ParseNullTime(deadAt); err != nil {
		return nil, err
	}
	msg.Payload = []byte(payload)
	if metadata.Valid {
		msg.Metadata = []byte(metadata.String)
	}
	if lastError.Valid {
		msg.LastError = &lastError.String
	}
	if deadReason.Valid {
		msg.DeadLetterReason = &deadReason.String
	}
	return &msg, nil
}
