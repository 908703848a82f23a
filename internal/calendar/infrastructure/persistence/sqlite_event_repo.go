package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const eventColumns = `id, user_id, source, external_id, title, start_time, end_time, is_all_day, can_reschedule, priority, synced_at`

// SQLiteEventRepository implements domain.EventRepository using SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

// NewSQLiteEventRepository creates a new SQLite event repository.
func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

// Save upserts event. A stored row with the same external ID keeps its ID.
func (r *SQLiteEventRepository) Save(ctx context.Context, event *domain.Event) error {
	return r.upsert(ctx, sharedPersistence.SQLiteExec(ctx, r.db), event)
}

func (r *SQLiteEventRepository) upsert(ctx context.Context, exec sharedPersistence.SQLiteExecutor, e *domain.Event) error {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO calendar_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, source, external_id) DO UPDATE SET
			title = excluded.title,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_all_day = excluded.is_all_day,
			can_reschedule = excluded.can_reschedule,
			priority = excluded.priority,
			synced_at = excluded.synced_at`,
		e.ID().String(),
		e.UserID().String(),
		e.Source().String(),
		e.ExternalID(),
		e.Title(),
		sharedPersistence.FormatTime(e.Start()),
		sharedPersistence.FormatTime(e.End()),
		e.IsAllDay(),
		e.CanReschedule(),
		e.Priority(),
		sharedPersistence.FormatTime(e.SyncedAt()),
	)
	if err != nil {
		return fmt.Errorf("upsert event %s/%s: %w", e.Source(), e.ExternalID(), err)
	}
	return nil
}

// ReplaceSource makes events the complete set stored for source.
func (r *SQLiteEventRepository) ReplaceSource(ctx context.Context, userID uuid.UUID, source domain.Source, events []*domain.Event) error {
	if _, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return r.replace(ctx, sharedPersistence.SQLiteExec(ctx, r.db), userID, source, events)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.replace(ctx, tx, userID, source, events); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteEventRepository) replace(ctx context.Context, exec sharedPersistence.SQLiteExecutor, userID uuid.UUID, source domain.Source, events []*domain.Event) error {
	stored, err := r.externalIDs(ctx, exec, userID, source)
	if err != nil {
		return err
	}
	for _, e := range events {
		if err := r.upsert(ctx, exec, e); err != nil {
			return err
		}
		delete(stored, e.ExternalID())
	}
	for externalID := range stored {
		_, err := exec.ExecContext(ctx,
			`DELETE FROM calendar_events WHERE user_id = ? AND source = ? AND external_id = ?`,
			userID.String(), source.String(), externalID)
		if err != nil {
			return fmt.Errorf("delete event %s/%s: %w", source, externalID, err)
		}
	}
	return nil
}

func (r *SQLiteEventRepository) externalIDs(ctx context.Context, exec sharedPersistence.SQLiteExecutor, userID uuid.UUID, source domain.Source) (map[string]struct{}, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT external_id FROM calendar_events WHERE user_id = ? AND source = ?`,
		userID.String(), source.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// FindBySource returns all stored events of one source ordered by start.
func (r *SQLiteEventRepository) FindBySource(ctx context.Context, userID uuid.UUID, source domain.Source) ([]*domain.Event, error) {
	return r.query(ctx, `
		SELECT `+eventColumns+` FROM calendar_events
		WHERE user_id = ? AND source = ?
		ORDER BY start_time, external_id`,
		userID.String(), source.String())
}

// FindInRange returns events overlapping [from, to), ordered by start.
func (r *SQLiteEventRepository) FindInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Event, error) {
	return r.query(ctx, `
		SELECT `+eventColumns+` FROM calendar_events
		WHERE user_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time, external_id`,
		userID.String(), sharedPersistence.FormatTime(to), sharedPersistence.FormatTime(from))
}

// Delete removes an event.
func (r *SQLiteEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := sharedPersistence.SQLiteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id.String())
	return err
}

func (r *SQLiteEventRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := sharedPersistence.SQLiteExec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanSQLiteEvent(rows *sql.Rows) (*domain.Event, error) {
	var (
		idStr, userIDStr, source, externalID, title string
		startStr, endStr, syncedAtStr               string
		allDay, canReschedule                       bool
		priority                                    int
	)
	if err := rows.Scan(&idStr, &userIDStr, &source, &externalID, &title, &startStr, &endStr, &allDay, &canReschedule, &priority, &syncedAtStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}
	start, err := sharedPersistence.ParseTime(startStr)
	if err != nil {
		return nil, err
	}
	end, err := sharedPersistence.ParseTime(endStr)
	if err != nil {
		return nil, err
	}
	syncedAt, err := sharedPersistence.ParseTime(syncedAtStr)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateEvent(id, userID, domain.Source(source), externalID, title, start, end, allDay, canReschedule, priority, syncedAt), nil
}
