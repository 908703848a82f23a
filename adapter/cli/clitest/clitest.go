// Package clitest runs CLI commands against a throwaway SQLite database.
package clitest

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	internalApp "github.com/felixgeelhaar/cadence/internal/app"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// UserID is the user every test app acts as.
const UserID = "00000000-0000-0000-0000-000000000001"

// Monday is the fixed time test apps run at: 2026-03-02 08:00 UTC.
var Monday = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// NewContainer creates a container over a temporary SQLite database, closed
// when the test ends.
func NewContainer(t *testing.T, mutate ...func(*config.Config)) *internalApp.Container {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                 "test",
		DatabaseDriver:         "sqlite",
		SQLitePath:             filepath.Join(t.TempDir(), "test.db"),
		UserID:                 UserID,
		Timezone:               "UTC",
		CalendarConflictPolicy: "notify-only",
		CalendarLookAheadDays:  14,
	}
	for _, m := range mutate {
		m(cfg)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger,
		internalApp.WithClock(sharedDomain.FixedClock{At: Monday}))
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return container
}

// NewApp installs a CLI app backed by NewContainer as the global app and
// removes it when the test ends.
func NewApp(t *testing.T, mutate ...func(*config.Config)) *cli.App {
	t.Helper()
	app := internalApp.NewCLIApp(NewContainer(t, mutate...))
	cli.SetApp(app)
	t.Cleanup(func() { cli.SetApp(nil) })
	return app
}

// Run resets cmd's flags to their defaults, applies flags and executes cmd,
// returning what it printed.
func Run(t *testing.T, cmd *cobra.Command, flags map[string]string, args ...string) (string, error) {
	t.Helper()
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	})
	for name, value := range flags {
		require.NoError(t, cmd.Flags().Set(name, value))
	}

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.String(), err
}
