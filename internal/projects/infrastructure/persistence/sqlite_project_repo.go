package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/felixgeelhaar/cadence/internal/projects/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteProjectRepository implements domain.Repository using SQLite.
type SQLiteProjectRepository struct {
	db *sql.DB
}

// NewSQLiteProjectRepository creates a new SQLite project repository.
func NewSQLiteProjectRepository(db *sql.DB) *SQLiteProjectRepository {
	return &SQLiteProjectRepository{db: db}
}

// Save creates or updates a project.
func (r *SQLiteProjectRepository) Save(ctx context.Context, p *domain.Project) error {
	_, err := persistence.SQLiteExec(ctx, r.db).ExecContext(ctx, `
		INSERT INTO projects (id, user_id, name, description, status, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			status = excluded.status,
			type = excluded.type,
			updated_at = excluded.updated_at`,
		p.ID().String(),
		p.UserID().String(),
		p.Name(),
		p.Description(),
		p.Status().String(),
		p.Type().String(),
		persistence.FormatTime(p.CreatedAt()),
		persistence.FormatTime(p.UpdatedAt()),
	)
	return err
}

// FindByID retrieves a project by ID.
func (r *SQLiteProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	row := persistence.SQLiteExec(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, user_id, name, description, status, type, created_at, updated_at
		FROM projects WHERE id = ?`, id.String())
	p, err := scanSQLiteProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	return p, err
}

// FindByUser lists a user's projects by name.
func (r *SQLiteProjectRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	rows, err := persistence.SQLiteExec(ctx, r.db).QueryContext(ctx, `
		SELECT id, user_id, name, description, status, type, created_at, updated_at
		FROM projects WHERE user_id = ? ORDER BY name, id`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanSQLiteProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteProject(row rowScanner) (*domain.Project, error) {
	var id, userID, name, description, status, kind, createdAt, updatedAt string
	if err := row.Scan(&id, &userID, &name, &description, &status, &kind, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	created, err := persistence.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := persistence.ParseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateProject(pid, uid, name, description, domain.Status(status), domain.Type(kind), created, updated), nil
}
