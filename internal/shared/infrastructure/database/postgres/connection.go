// Package postgres opens the pgx connection pool used in server mode.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/convert"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open creates a connection pool for url and verifies it with a ping.
func Open(ctx context.Context, url string, maxConns int) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, errors.New("database URL is required for PostgreSQL")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = convert.IntToInt32Clamped(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
