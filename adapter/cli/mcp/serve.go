package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/app"
	mcpinternal "github.com/felixgeelhaar/cadence/internal/mcp"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the task, schedule, calendar and preference tools over HTTP.
Set MCP_ADDR to change the listen address and MCP_AUTH_TOKEN to require a
bearer token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logCfg := observability.LogConfigFromEnv()
		logCfg.Output = cmd.ErrOrStderr()
		logCfg.ServiceName = "cadence-mcp"
		logCfg.ServiceVersion = cli.Version
		logger := observability.NewLogger(logCfg)

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		err = mcpinternal.Serve(ctx, cfg, app.NewCLIApp(container), logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
