package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgTaskColumns = `
	id, user_id, project_id, title, description, status, due_date, estimated_minutes,
	tags, dependencies, memory_links, cognitive_load, work_mode,
	priority_computed, priority_score, priority_urgency, priority_impact, priority_memory_context,
	locked_score, locked_reason, locked_at, locked_by, completed_at, created_at, updated_at, version`

// PostgresTaskRepository implements task.Repository using PostgreSQL.
type PostgresTaskRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(pool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{pool: pool}
}

// taskRow represents a database row for tasks.
type taskRow struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ProjectID        *uuid.UUID
	Title            string
	Description      string
	Status           string
	DueDate          *time.Time
	EstimatedMinutes int
	Tags             []string
	Dependencies     []byte
	MemoryLinks      []byte
	CognitiveLoad    string
	WorkMode         string
	PriorityComputed bool
	Score            int
	Urgency          int
	Impact           int
	MemoryContext    int
	LockedScore      *int
	LockedReason     *string
	LockedAt         *time.Time
	LockedBy         *string
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int
}

// Save persists a task to the database.
func (r *PostgresTaskRepository) Save(ctx context.Context, t *task.Task) error {
	return r.save(ctx, persistence.Executor(ctx, r.pool), t)
}

// SaveAll saves tasks in one batch, inside the caller's transaction if any.
func (r *PostgresTaskRepository) SaveAll(ctx context.Context, tasks []*task.Task) error {
	if _, ok := persistence.TxInfoFromContext(ctx); ok {
		exec := persistence.Executor(ctx, r.pool)
		for _, t := range tasks {
			if err := r.save(ctx, exec, t); err != nil {
				return err
			}
		}
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, t := range tasks {
			if err := r.save(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresTaskRepository) save(ctx context.Context, exec persistence.DBExecutor, t *task.Task) error {
	s := t.Snapshot()

	deps, err := json.Marshal(uuidStrings(s.Dependencies))
	if err != nil {
		return err
	}
	links, err := json.Marshal(nonNil(s.MemoryLinks))
	if err != nil {
		return err
	}

	var (
		lockedScore  *int
		lockedReason *string
		lockedAt     *time.Time
		lockedBy     *string
	)
	if s.Lock != nil {
		lockedScore = &s.Lock.Score
		lockedReason = &s.Lock.Reason
		lockedAt = &s.Lock.LockedAt
		lockedBy = &s.Lock.LockedBy
	}

	query := `
		INSERT INTO tasks (` + pgTaskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			due_date = EXCLUDED.due_date,
			estimated_minutes = EXCLUDED.estimated_minutes,
			tags = EXCLUDED.tags,
			dependencies = EXCLUDED.dependencies,
			memory_links = EXCLUDED.memory_links,
			cognitive_load = EXCLUDED.cognitive_load,
			work_mode = EXCLUDED.work_mode,
			priority_computed = EXCLUDED.priority_computed,
			priority_score = EXCLUDED.priority_score,
			priority_urgency = EXCLUDED.priority_urgency,
			priority_impact = EXCLUDED.priority_impact,
			priority_memory_context = EXCLUDED.priority_memory_context,
			locked_score = EXCLUDED.locked_score,
			locked_reason = EXCLUDED.locked_reason,
			locked_at = EXCLUDED.locked_at,
			locked_by = EXCLUDED.locked_by,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at,
			version = EXCLUDED.version
	`

	_, err = exec.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.ProjectID,
		s.Title,
		s.Description,
		s.Status.String(),
		s.DueDate,
		s.EstimatedMinutes,
		nonNil(s.Tags),
		deps,
		links,
		s.CognitiveLoad.String(),
		s.WorkMode.String(),
		s.PriorityComputed,
		s.Score,
		s.Urgency,
		s.Impact,
		s.MemoryContext,
		lockedScore,
		lockedReason,
		lockedAt,
		lockedBy,
		s.CompletedAt,
		s.CreatedAt,
		s.UpdatedAt,
		s.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", s.ID, err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *PostgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	query := `SELECT ` + pgTaskColumns + ` FROM tasks WHERE id = $1`

	row, err := scanTaskRow(persistence.Executor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return row.toTask()
}

// FindByUser retrieves a user's tasks, oldest first.
func (r *PostgresTaskRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter task.Filter) ([]*task.Task, error) {
	query := `SELECT ` + pgTaskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		query += ` AND status = ANY($2)`
		args = append(args, statuses)
	}
	query += ` ORDER BY created_at, id`

	rows, err := persistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		row, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		t, err := row.toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes a task.
func (r *PostgresTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := persistence.Executor(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

func scanTaskRow(row pgx.Row) (taskRow, error) {
	var r taskRow
	err := row.Scan(
		&r.ID, &r.UserID, &r.ProjectID, &r.Title, &r.Description, &r.Status, &r.DueDate, &r.EstimatedMinutes,
		&r.Tags, &r.Dependencies, &r.MemoryLinks, &r.CognitiveLoad, &r.WorkMode,
		&r.PriorityComputed, &r.Score, &r.Urgency, &r.Impact, &r.MemoryContext,
		&r.LockedScore, &r.LockedReason, &r.LockedAt, &r.LockedBy, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	return r, err
}

func (r taskRow) toTask() (*task.Task, error) {
	status, err := task.ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	deps, err := parseDependencies(r.Dependencies)
	if err != nil {
		return nil, err
	}
	var links []string
	if err := json.Unmarshal(r.MemoryLinks, &links); err != nil {
		return nil, fmt.Errorf("decode memory links: %w", err)
	}

	s := task.Snapshot{
		ID:               r.ID,
		UserID:           r.UserID,
		ProjectID:        r.ProjectID,
		Title:            r.Title,
		Description:      r.Description,
		Status:           status,
		Score:            r.Score,
		Urgency:          r.Urgency,
		Impact:           r.Impact,
		MemoryContext:    r.MemoryContext,
		PriorityComputed: r.PriorityComputed,
		DueDate:          r.DueDate,
		EstimatedMinutes: r.EstimatedMinutes,
		Tags:             r.Tags,
		Dependencies:     deps,
		MemoryLinks:      links,
		CognitiveLoad:    vo.CognitiveLoad(r.CognitiveLoad),
		WorkMode:         vo.WorkMode(r.WorkMode),
		CompletedAt:      r.CompletedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		Version:          r.Version,
	}
	if r.LockedScore != nil {
		s.Lock = &task.LockedPriority{Score: *r.LockedScore}
		if r.LockedReason != nil {
			s.Lock.Reason = *r.LockedReason
		}
		if r.LockedAt != nil {
			s.Lock.LockedAt = r.LockedAt.UTC()
		}
		if r.LockedBy != nil {
			s.Lock.LockedBy = *r.LockedBy
		}
	}
	return task.FromSnapshot(s), nil
}
