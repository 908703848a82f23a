package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

const blockColumns = `id, user_id, task_id, title, start_time, end_time, buffer_before, buffer_after, block_type, is_flexible, created_at`

// SQLiteBlockRepository implements domain.BlockRepository using SQLite.
type SQLiteBlockRepository struct {
	db *sql.DB
}

// NewSQLiteBlockRepository creates a new SQLite block repository.
func NewSQLiteBlockRepository(db *sql.DB) *SQLiteBlockRepository {
	return &SQLiteBlockRepository{db: db}
}

// ReplaceAll deletes the user's blocks and inserts blocks, atomically.
func (r *SQLiteBlockRepository) ReplaceAll(ctx context.Context, userID uuid.UUID, blocks []domain.TimeBlock) error {
	if _, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return r.replace(ctx, sharedPersistence.SQLiteExec(ctx, r.db), userID, blocks)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.replace(ctx, tx, userID, blocks); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteBlockRepository) replace(ctx context.Context, exec sharedPersistence.SQLiteExecutor, userID uuid.UUID, blocks []domain.TimeBlock) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM time_blocks WHERE user_id = ?`, userID.String()); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	for _, b := range blocks {
		_, err := exec.ExecContext(ctx, `INSERT INTO time_blocks (`+blockColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID().String(),
			userID.String(),
			b.TaskID().String(),
			b.Title(),
			sharedPersistence.FormatTime(b.Start()),
			sharedPersistence.FormatTime(b.End()),
			b.BufferBefore(),
			b.BufferAfter(),
			b.Type().String(),
			b.IsFlexible(),
			sharedPersistence.FormatTime(b.CreatedAt()),
		)
		if err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID(), err)
		}
	}
	return nil
}

// FindByUser returns every block of the user ordered by start.
func (r *SQLiteBlockRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.TimeBlock, error) {
	return r.query(ctx, `SELECT `+blockColumns+` FROM time_blocks WHERE user_id = ? ORDER BY start_time, id`, userID.String())
}

// FindInRange returns blocks overlapping [from, to).
func (r *SQLiteBlockRepository) FindInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.TimeBlock, error) {
	return r.query(ctx, `
		SELECT `+blockColumns+` FROM time_blocks
		WHERE user_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time, id`,
		userID.String(), sharedPersistence.FormatTime(to), sharedPersistence.FormatTime(from))
}

// FindStartingBetween returns blocks of every user starting in (from, to].
func (r *SQLiteBlockRepository) FindStartingBetween(ctx context.Context, from, to time.Time) ([]domain.TimeBlock, error) {
	return r.query(ctx, `
		SELECT `+blockColumns+` FROM time_blocks
		WHERE start_time > ? AND start_time <= ?
		ORDER BY start_time, id`,
		sharedPersistence.FormatTime(from), sharedPersistence.FormatTime(to))
}

func (r *SQLiteBlockRepository) query(ctx context.Context, query string, args ...any) ([]domain.TimeBlock, error) {
	rows, err := sharedPersistence.SQLiteExec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.TimeBlock
	for rows.Next() {
		b, err := scanSQLiteBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func scanSQLiteBlock(rows *sql.Rows) (domain.TimeBlock, error) {
	var (
		id, userID, taskID, title, start, end, blockType, createdAt string
		bufferBefore, bufferAfter                                  int
		flexible                                                   bool
	)
	if err := rows.Scan(&id, &userID, &taskID, &title, &start, &end, &bufferBefore, &bufferAfter, &blockType, &flexible, &createdAt); err != nil {
		return domain.TimeBlock{}, err
	}

	spec := domain.BlockSpec{
		Title:        title,
		BufferBefore: bufferBefore,
		BufferAfter:  bufferAfter,
		Type:         domain.BlockType(blockType),
		Flexible:     flexible,
	}
	blockID, err := uuid.Parse(id)
	if err != nil {
		return domain.TimeBlock{}, err
	}
	if spec.UserID, err = uuid.Parse(userID); err != nil {
		return domain.TimeBlock{}, err
	}
	if spec.TaskID, err = uuid.Parse(taskID); err != nil {
		return domain.TimeBlock{}, err
	}
	if spec.Start, err = sharedPersistence.ParseTime(start); err != nil {
		return domain.TimeBlock{}, err
	}
	if spec.End, err = sharedPersistence.ParseTime(end); err != nil {
		return domain.TimeBlock{}, err
	}
	created, err := sharedPersistence.ParseTime(createdAt)
	if err != nil {
		return domain.TimeBlock{}, err
	}
	return domain.RehydrateTimeBlock(blockID, spec, created), nil
}
