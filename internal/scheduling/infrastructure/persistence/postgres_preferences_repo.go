package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPreferencesRepository stores preferences in a JSONB column.
type PostgresPreferencesRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPreferencesRepository creates a new PostgreSQL preferences repository.
func NewPostgresPreferencesRepository(pool *pgxpool.Pool) *PostgresPreferencesRepository {
	return &PostgresPreferencesRepository{pool: pool}
}

// Find returns domain.ErrPreferencesNotFound when nothing is stored.
func (r *PostgresPreferencesRepository) Find(ctx context.Context, userID uuid.UUID) (domain.UserPreferences, error) {
	var doc []byte
	err := sharedPersistence.Executor(ctx, r.pool).
		QueryRow(ctx, `SELECT document FROM user_preferences WHERE user_id = $1`, userID).
		Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserPreferences{}, domain.ErrPreferencesNotFound
	}
	if err != nil {
		return domain.UserPreferences{}, err
	}
	return decodePreferences(doc)
}

// Save validates and upserts prefs.
func (r *PostgresPreferencesRepository) Save(ctx context.Context, userID uuid.UUID, prefs domain.UserPreferences) error {
	doc, err := encodePreferences(prefs)
	if err != nil {
		return err
	}
	_, err = sharedPersistence.Executor(ctx, r.pool).Exec(ctx, `
		INSERT INTO user_preferences (user_id, document, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		userID, doc, time.Now().UTC())
	return err
}
