package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLitePreferencesRepository stores preferences as a JSON document.
type SQLitePreferencesRepository struct {
	db *sql.DB
}

// NewSQLitePreferencesRepository creates a new SQLite preferences repository.
func NewSQLitePreferencesRepository(db *sql.DB) *SQLitePreferencesRepository {
	return &SQLitePreferencesRepository{db: db}
}

// Find returns domain.ErrPreferencesNotFound when nothing is stored.
func (r *SQLitePreferencesRepository) Find(ctx context.Context, userID uuid.UUID) (domain.UserPreferences, error) {
	var doc string
	err := sharedPersistence.SQLiteExec(ctx, r.db).
		QueryRowContext(ctx, `SELECT document FROM user_preferences WHERE user_id = ?`, userID.String()).
		Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserPreferences{}, domain.ErrPreferencesNotFound
	}
	if err != nil {
		return domain.UserPreferences{}, err
	}
	return decodePreferences([]byte(doc))
}

// Save validates and upserts prefs.
func (r *SQLitePreferencesRepository) Save(ctx context.Context, userID uuid.UUID, prefs domain.UserPreferences) error {
	doc, err := encodePreferences(prefs)
	if err != nil {
		return err
	}
	_, err = sharedPersistence.SQLiteExec(ctx, r.db).ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		userID.String(), string(doc), sharedPersistence.FormatTime(time.Now()))
	return err
}

func encodePreferences(prefs domain.UserPreferences) ([]byte, error) {
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	doc, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	return doc, nil
}

func decodePreferences(doc []byte) (domain.UserPreferences, error) {
	prefs := domain.DefaultPreferences()
	if err := json.Unmarshal(doc, &prefs); err != nil {
		return domain.UserPreferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}
