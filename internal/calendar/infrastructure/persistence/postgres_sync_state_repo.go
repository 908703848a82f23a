package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSyncStateRepository implements SyncStateRepository using PostgreSQL.
type PostgresSyncStateRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSyncStateRepository creates a new PostgreSQL sync state repository.
func NewPostgresSyncStateRepository(pool *pgxpool.Pool) *PostgresSyncStateRepository {
	return &PostgresSyncStateRepository{pool: pool}
}

// Save persists a sync state (create or update).
func (r *PostgresSyncStateRepository) Save(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO calendar_sync_state (` + syncStateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, source) DO UPDATE SET
			last_success_at = EXCLUDED.last_success_at,
			last_error = EXCLUDED.last_error,
			last_error_at = EXCLUDED.last_error_at,
			event_count = EXCLUDED.event_count
	`

	_, err := sharedPersistence.Executor(ctx, r.pool).Exec(ctx, query,
		state.UserID(),
		state.Source().String(),
		state.LastSuccessAt(),
		nullString(state.LastError()),
		state.LastErrorAt(),
		state.EventCount(),
	)
	return err
}

// Find returns nil when the source never synced.
func (r *PostgresSyncStateRepository) Find(ctx context.Context, userID uuid.UUID, source domain.Source) (*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM calendar_sync_state WHERE user_id = $1 AND source = $2`

	row := sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, userID, source.String())
	state, err := scanPostgresSyncState(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return state, err
}

// FindByUser finds all sync states for a user.
func (r *PostgresSyncStateRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM calendar_sync_state WHERE user_id = $1 ORDER BY source`

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*domain.SyncState
	for rows.Next() {
		state, err := scanPostgresSyncState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}

	return states, rows.Err()
}

func scanPostgresSyncState(row rowScanner) (*domain.SyncState, error) {
	var (
		userID        uuid.UUID
		source        string
		lastSuccessAt *time.Time
		lastError     sql.NullString
		lastErrorAt   *time.Time
		eventCount    int
	)
	if err := row.Scan(&userID, &source, &lastSuccessAt, &lastError, &lastErrorAt, &eventCount); err != nil {
		return nil, err
	}
	return domain.RehydrateSyncState(userID, domain.Source(source), lastSuccessAt, lastError.String, lastErrorAt, eventCount), nil
}

// nullString converts a string to sql.NullString.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
