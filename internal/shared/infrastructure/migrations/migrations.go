// Package migrations embeds the schema for both storage drivers.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// SkipRecomputeNotify is the transaction-local setting that keeps
// notify_cadence_recompute() silent for writes whose caller submits its own
// recompute trigger.
const SkipRecomputeNotify = "cadence.skip_recompute_notify"

// RunSQLiteMigrations applies every sqlite/*.up.sql file in name order.
// Statements are idempotent, so this runs on every start.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return apply("sqlite", func(name, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	})
}

// RunPostgresMigrations applies every postgres/*.up.sql file in name order.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return apply("postgres", func(name, stmt string) error {
		// no arguments: pgx uses the simple protocol, which allows several statements
		_, err := pool.Exec(ctx, stmt)
		return err
	})
}

func apply(dir string, exec func(name, stmt string) error) error {
	names, err := upFiles(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		body, err := files.ReadFile(dir + "/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := exec(name, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func upFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
