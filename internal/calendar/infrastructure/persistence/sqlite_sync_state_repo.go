package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const syncStateColumns = `user_id, source, last_success_at, last_error, last_error_at, event_count`

// SQLiteSyncStateRepository implements SyncStateRepository using SQLite.
type SQLiteSyncStateRepository struct {
	db *sql.DB
}

// NewSQLiteSyncStateRepository creates a new SQLite sync state repository.
func NewSQLiteSyncStateRepository(db *sql.DB) *SQLiteSyncStateRepository {
	return &SQLiteSyncStateRepository{db: db}
}

// Save persists a sync state (create or update).
func (r *SQLiteSyncStateRepository) Save(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO calendar_sync_state (` + syncStateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, source) DO UPDATE SET
			last_success_at = excluded.last_success_at,
			last_error = excluded.last_error,
			last_error_at = excluded.last_error_at,
			event_count = excluded.event_count
	`

	var lastError sql.NullString
	if s := state.LastError(); s != "" {
		lastError = sql.NullString{String: s, Valid: true}
	}

	_, err := sharedPersistence.SQLiteExec(ctx, r.db).ExecContext(ctx, query,
		state.UserID().String(),
		state.Source().String(),
		sharedPersistence.FormatNullTime(state.LastSuccessAt()),
		lastError,
		sharedPersistence.FormatNullTime(state.LastErrorAt()),
		state.EventCount(),
	)
	return err
}

// Find returns nil when the source never synced.
func (r *SQLiteSyncStateRepository) Find(ctx context.Context, userID uuid.UUID, source domain.Source) (*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM calendar_sync_state WHERE user_id = ? AND source = ?`

	row := sharedPersistence.SQLiteExec(ctx, r.db).QueryRowContext(ctx, query, userID.String(), source.String())
	state, err := scanSQLiteSyncState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return state, err
}

// FindByUser finds all sync states for a user.
func (r *SQLiteSyncStateRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM calendar_sync_state WHERE user_id = ? ORDER BY source`

	rows, err := sharedPersistence.SQLiteExec(ctx, r.db).QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*domain.SyncState
	for rows.Next() {
		state, err := scanSQLiteSyncState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}

	return states, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSyncState(row rowScanner) (*domain.SyncState, error) {
	var (
		userIDStr     string
		source        string
		lastSuccessAt sql.NullString
		lastError     sql.NullString
		lastErrorAt   sql.NullString
		eventCount    int
	)
	if err := row.Scan(&userIDStr, &source, &lastSuccessAt, &lastError, &lastErrorAt, &eventCount); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}
	successAt, err := sharedPersistence.ParseNullTime(lastSuccessAt)
	if err != nil {
		return nil, err
	}
	errorAt, err := sharedPersistence.ParseNullTime(lastErrorAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateSyncState(userID, domain.Source(source), successAt, lastError.String, errorAt, eventCount), nil
}
