package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	vo "github.com/felixgeelhaar/cadence/internal/productivity/domain/value_objects"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const sqliteTaskColumns = `
	id, user_id, project_id, title, description, status, due_date, estimated_minutes,
	tags, dependencies, memory_links, cognitive_load, work_mode,
	priority_computed, priority_score, priority_urgency, priority_impact, priority_memory_context,
	locked_score, locked_reason, locked_at, locked_by, completed_at, created_at, updated_at, version`

const sqliteUpsertTask = `
	INSERT INTO tasks (` + sqliteTaskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		project_id = excluded.project_id,
		title = excluded.title,
		description = excluded.description,
		status = excluded.status,
		due_date = excluded.due_date,
		estimated_minutes = excluded.estimated_minutes,
		tags = excluded.tags,
		dependencies = excluded.dependencies,
		memory_links = excluded.memory_links,
		cognitive_load = excluded.cognitive_load,
		work_mode = excluded.work_mode,
		priority_computed = excluded.priority_computed,
		priority_score = excluded.priority_score,
		priority_urgency = excluded.priority_urgency,
		priority_impact = excluded.priority_impact,
		priority_memory_context = excluded.priority_memory_context,
		locked_score = excluded.locked_score,
		locked_reason = excluded.locked_reason,
		locked_at = excluded.locked_at,
		locked_by = excluded.locked_by,
		completed_at = excluded.completed_at,
		updated_at = excluded.updated_at,
		version = excluded.version`

// SQLiteTaskRepository implements task.Repository using SQLite.
type SQLiteTaskRepository struct {
	db *sql.DB
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
func NewSQLiteTaskRepository(db *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{db: db}
}

// Save inserts or updates a task.
func (r *SQLiteTaskRepository) Save(ctx context.Context, t *task.Task) error {
	return r.save(ctx, persistence.SQLiteExec(ctx, r.db), t)
}

// SaveAll saves tasks in one transaction, joining the caller's if present.
func (r *SQLiteTaskRepository) SaveAll(ctx context.Context, tasks []*task.Task) error {
	if _, ok := persistence.SQLiteTxInfoFromContext(ctx); ok {
		exec := persistence.SQLiteExec(ctx, r.db)
		for _, t := range tasks {
			if err := r.save(ctx, exec, t); err != nil {
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
	for _, t := range tasks {
		if err := r.save(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteTaskRepository) save(ctx context.Context, exec persistence.SQLiteExecutor, t *task.Task) error {
	s := t.Snapshot()

	tags, err := json.Marshal(nonNil(s.Tags))
	if err != nil {
		return err
	}
	deps, err := json.Marshal(uuidStrings(s.Dependencies))
	if err != nil {
		return err
	}
	links, err := json.Marshal(nonNil(s.MemoryLinks))
	if err != nil {
		return err
	}

	var projectID sql.NullString
	if s.ProjectID != nil {
		projectID = sql.NullString{String: s.ProjectID.String(), Valid: true}
	}

	var (
		lockedScore  sql.NullInt64
		lockedReason sql.NullString
		lockedAt     sql.NullString
		lockedBy     sql.NullString
	)
	if s.Lock != nil {
		lockedScore = sql.NullInt64{Int64: int64(s.Lock.Score), Valid: true}
		lockedReason = sql.NullString{String: s.Lock.Reason, Valid: true}
		lockedAt = persistence.FormatNullTime(&s.Lock.LockedAt)
		lockedBy = sql.NullString{String: s.Lock.LockedBy, Valid: true}
	}

	_, err = exec.ExecContext(ctx, sqliteUpsertTask,
		s.ID.String(),
		s.UserID.String(),
		projectID,
		s.Title,
		s.Description,
		s.Status.String(),
		persistence.FormatNullTime(s.DueDate),
		s.EstimatedMinutes,
		string(tags),
		string(deps),
		string(links),
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
		persistence.FormatNullTime(s.CompletedAt),
		persistence.FormatTime(s.CreatedAt),
		persistence.FormatTime(s.UpdatedAt),
		s.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", s.ID, err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *SQLiteTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	row := persistence.SQLiteExec(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+sqliteTaskColumns+` FROM tasks WHERE id = ?`, id.String())
	t, err := scanSQLiteTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrTaskNotFound
	}
	return t, err
}

// FindByUser lists a user's tasks, oldest first, narrowed by filter.
func (r *SQLiteTaskRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter task.Filter) ([]*task.Task, error) {
	query := `SELECT ` + sqliteTaskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID.String()}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, s.String())
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := persistence.SQLiteExec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes a task.
func (r *SQLiteTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := persistence.SQLiteExec(ctx, r.db).ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTask(row rowScanner) (*task.Task, error) {
	var (
		id, userID, title, description, status string
		projectID, dueDate, completedAt         sql.NullString
		tags, deps, links                       string
		cognitiveLoad, workMode                 string
		createdAt, updatedAt                    string
		lockedScore                             sql.NullInt64
		lockedReason, lockedAt, lockedBy        sql.NullString
		s                                       task.Snapshot
	)
	err := row.Scan(
		&id, &userID, &projectID, &title, &description, &status, &dueDate, &s.EstimatedMinutes,
		&tags, &deps, &links, &cognitiveLoad, &workMode,
		&s.PriorityComputed, &s.Score, &s.Urgency, &s.Impact, &s.MemoryContext,
		&lockedScore, &lockedReason, &lockedAt, &lockedBy, &completedAt, &createdAt, &updatedAt, &s.Version,
	)
	if err != nil {
		return nil, err
	}

	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if s.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if projectID.Valid {
		pid, err := uuid.Parse(projectID.String)
		if err != nil {
			return nil, err
		}
		s.ProjectID = &pid
	}
	s.Title = title
	s.Description = description
	if s.Status, err = task.ParseStatus(status); err != nil {
		return nil, err
	}
	if s.DueDate, err = persistence.ParseNullTime(dueDate); err != nil {
		return nil, err
	}
	if s.CompletedAt, err = persistence.ParseNullTime(completedAt); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = persistence.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = persistence.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &s.MemoryLinks); err != nil {
		return nil, fmt.Errorf("decode memory links: %w", err)
	}
	if s.Dependencies, err = parseDependencies([]byte(deps)); err != nil {
		return nil, err
	}
	s.CognitiveLoad = vo.CognitiveLoad(cognitiveLoad)
	s.WorkMode = vo.WorkMode(workMode)

	if lockedScore.Valid {
		at, err := persistence.ParseNullTime(lockedAt)
		if err != nil {
			return nil, err
		}
		s.Lock = &task.LockedPriority{
			Score:    int(lockedScore.Int64),
			Reason:   lockedReason.String,
			LockedBy: lockedBy.String,
		}
		if at != nil {
			s.Lock.LockedAt = *at
		}
	}

	return task.FromSnapshot(s), nil
}

func parseDependencies(raw []byte) ([]uuid.UUID, error) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode dependencies: %w", err)
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("decode dependencies: %w", err)
		}
		out = append(out, id)
	}
	return out, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
