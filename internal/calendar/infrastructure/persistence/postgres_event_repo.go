package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/migrations"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresEventRepository implements domain.EventRepository using PostgreSQL.
// Callers submit CalendarSynced themselves, so writes set
// migrations.SkipRecomputeNotify and notify_cadence_recompute only fires for
// changes made outside the application.
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Save upserts event. A stored row with the same external ID keeps its ID.
func (r *PostgresEventRepository) Save(ctx context.Context, event *domain.Event) error {
	return r.write(ctx, func(exec sharedPersistence.DBExecutor) error {
		return r.upsert(ctx, exec, event)
	})
}

// write runs fn in the transaction carried by ctx, or in a new one, with the
// recompute notification suppressed for that transaction.
func (r *PostgresEventRepository) write(ctx context.Context, fn func(sharedPersistence.DBExecutor) error) error {
	run := func(exec sharedPersistence.DBExecutor) error {
		if _, err := exec.Exec(ctx, `SELECT set_config($1, 'on', true)`, migrations.SkipRecomputeNotify); err != nil {
			return fmt.Errorf("suppress recompute notify: %w", err)
		}
		return fn(exec)
	}
	if _, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		return run(sharedPersistence.Executor(ctx, r.pool))
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return run(tx)
	})
}

func (r *PostgresEventRepository) upsert(ctx context.Context, exec sharedPersistence.DBExecutor, e *domain.Event) error {
	_, err := exec.Exec(ctx, `
		INSERT INTO calendar_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_all_day = EXCLUDED.is_all_day,
			can_reschedule = EXCLUDED.can_reschedule,
			priority = EXCLUDED.priority,
			synced_at = EXCLUDED.synced_at`,
		e.ID(), e.UserID(), e.Source().String(), e.ExternalID(), e.Title(),
		e.Start(), e.End(), e.IsAllDay(), e.CanReschedule(), e.Priority(), e.SyncedAt(),
	)
	if err != nil {
		return fmt.Errorf("upsert event %s/%s: %w", e.Source(), e.ExternalID(), err)
	}
	return nil
}

// ReplaceSource makes events the complete set stored for source.
func (r *PostgresEventRepository) ReplaceSource(ctx context.Context, userID uuid.UUID, source domain.Source, events []*domain.Event) error {
	return r.write(ctx, func(exec sharedPersistence.DBExecutor) error {
		return r.replace(ctx, exec, userID, source, events)
	})
}

func (r *PostgresEventRepository) replace(ctx context.Context, exec sharedPersistence.DBExecutor, userID uuid.UUID, source domain.Source, events []*domain.Event) error {
	keep := make([]string, 0, len(events))
	for _, e := range events {
		if err := r.upsert(ctx, exec, e); err != nil {
			return err
		}
		keep = append(keep, e.ExternalID())
	}
	_, err := exec.Exec(ctx, `
		DELETE FROM calendar_events
		WHERE user_id = $1 AND source = $2 AND NOT (external_id = ANY($3))`,
		userID, source.String(), keep)
	if err != nil {
		return fmt.Errorf("delete stale %s events: %w", source, err)
	}
	return nil
}

// FindBySource returns all stored events of one source ordered by start.
func (r *PostgresEventRepository) FindBySource(ctx context.Context, userID uuid.UUID, source domain.Source) ([]*domain.Event, error) {
	return r.query(ctx, `
		SELECT `+eventColumns+` FROM calendar_events
		WHERE user_id = $1 AND source = $2
		ORDER BY start_time, external_id`, userID, source.String())
}

// FindInRange returns events overlapping [from, to), ordered by start.
func (r *PostgresEventRepository) FindInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Event, error) {
	return r.query(ctx, `
		SELECT `+eventColumns+` FROM calendar_events
		WHERE user_id = $1 AND start_time < $2 AND end_time > $3
		ORDER BY start_time, external_id`, userID, to, from)
}

// Delete removes an event.
func (r *PostgresEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	return err
}

func (r *PostgresEventRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var (
			id, userID                uuid.UUID
			source, externalID, title string
			start, end, syncedAt      time.Time
			allDay, canReschedule     bool
			priority                  int
		)
		if err := rows.Scan(&id, &userID, &source, &externalID, &title, &start, &end, &allDay, &canReschedule, &priority, &syncedAt); err != nil {
			return nil, err
		}
		events = append(events, domain.RehydrateEvent(id, userID, domain.Source(source), externalID, title, start, end, allDay, canReschedule, priority, syncedAt))
	}
	return events, rows.Err()
}
