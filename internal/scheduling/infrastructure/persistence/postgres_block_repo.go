package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBlockRepository implements domain.BlockRepository using PostgreSQL.
type PostgresBlockRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBlockRepository creates a new PostgreSQL block repository.
func NewPostgresBlockRepository(pool *pgxpool.Pool) *PostgresBlockRepository {
	return &PostgresBlockRepository{pool: pool}
}

// ReplaceAll deletes the user's blocks and inserts blocks, atomically.
func (r *PostgresBlockRepository) ReplaceAll(ctx context.Context, userID uuid.UUID, blocks []domain.TimeBlock) error {
	if _, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		return r.replace(ctx, sharedPersistence.Executor(ctx, r.pool), userID, blocks)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.replace(ctx, tx, userID, blocks)
	})
}

func (r *PostgresBlockRepository) replace(ctx context.Context, exec sharedPersistence.DBExecutor, userID uuid.UUID, blocks []domain.TimeBlock) error {
	if _, err := exec.Exec(ctx, `DELETE FROM time_blocks WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	for _, b := range blocks {
		_, err := exec.Exec(ctx, `INSERT INTO time_blocks (`+blockColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			b.ID(), userID, b.TaskID(), b.Title(), b.Start(), b.End(),
			b.BufferBefore(), b.BufferAfter(), b.Type().String(), b.IsFlexible(), b.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID(), err)
		}
	}
	return nil
}

// FindByUser returns every block of the user ordered by start.
func (r *PostgresBlockRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.TimeBlock, error) {
	return r.query(ctx, `SELECT `+blockColumns+` FROM time_blocks WHERE user_id = $1 ORDER BY start_time, id`, userID)
}

// FindInRange returns blocks overlapping [from, to).
func (r *PostgresBlockRepository) FindInRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.TimeBlock, error) {
	return r.query(ctx, `
		SELECT `+blockColumns+` FROM time_blocks
		WHERE user_id = $1 AND start_time < $2 AND end_time > $3
		ORDER BY start_time, id`, userID, to, from)
}

// FindStartingBetween returns blocks of every user starting in (from, to].
func (r *PostgresBlockRepository) FindStartingBetween(ctx context.Context, from, to time.Time) ([]domain.TimeBlock, error) {
	return r.query(ctx, `
		SELECT `+blockColumns+` FROM time_blocks
		WHERE start_time > $1 AND start_time <= $2
		ORDER BY start_time, id`, from, to)
}

func (r *PostgresBlockRepository) query(ctx context.Context, query string, args ...any) ([]domain.TimeBlock, error) {
	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.TimeBlock
	for rows.Next() {
		var (
			blockID   uuid.UUID
			createdAt time.Time
			blockType string
			spec      domain.BlockSpec
		)
		if err := rows.Scan(&blockID, &spec.UserID, &spec.TaskID, &spec.Title, &spec.Start, &spec.End,
			&spec.BufferBefore, &spec.BufferAfter, &blockType, &spec.Flexible, &createdAt); err != nil {
			return nil, err
		}
		spec.Type = domain.BlockType(blockType)
		blocks = append(blocks, domain.RehydrateTimeBlock(blockID, spec, createdAt))
	}
	return blocks, rows.Err()
}
