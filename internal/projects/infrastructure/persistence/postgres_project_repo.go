package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/cadence/internal/projects/domain"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProjectRepository implements domain.Repository using PostgreSQL.
type PostgresProjectRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProjectRepository creates a new PostgreSQL project repository.
func NewPostgresProjectRepository(pool *pgxpool.Pool) *PostgresProjectRepository {
	return &PostgresProjectRepository{pool: pool}
}

type projectRow struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	Type        string    `db:"type"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r projectRow) toProject() *domain.Project {
	return domain.RehydrateProject(r.ID, r.UserID, r.Name, r.Description,
		domain.Status(r.Status), domain.Type(r.Type), r.CreatedAt, r.UpdatedAt)
}

// Save creates or updates a project.
func (r *PostgresProjectRepository) Save(ctx context.Context, p *domain.Project) error {
	_, err := persistence.Executor(ctx, r.pool).Exec(ctx, `
		INSERT INTO projects (id, user_id, name, description, status, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			type = EXCLUDED.type,
			updated_at = EXCLUDED.updated_at`,
		p.ID(), p.UserID(), p.Name(), p.Description(), p.Status().String(), p.Type().String(),
		p.CreatedAt(), p.UpdatedAt(),
	)
	return err
}

// FindByID retrieves a project by ID.
func (r *PostgresProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, name, description, status, type, created_at, updated_at
		FROM projects WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[projectRow])
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return row.toProject(), nil
}

// FindByUser lists a user's projects by name.
func (r *PostgresProjectRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Project, error) {
	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, name, description, status, type, created_at, updated_at
		FROM projects WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, err
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[projectRow])
	if err != nil {
		return nil, err
	}
	projects := make([]*domain.Project, len(collected))
	for i, row := range collected {
		projects[i] = row.toProject()
	}
	return projects, nil
}
