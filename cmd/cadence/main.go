package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/adapter/cli/calendar"
	"github.com/felixgeelhaar/cadence/adapter/cli/mcp"
	"github.com/felixgeelhaar/cadence/adapter/cli/project"
	"github.com/felixgeelhaar/cadence/adapter/cli/schedule"
	"github.com/felixgeelhaar/cadence/adapter/cli/settings"
	"github.com/felixgeelhaar/cadence/adapter/cli/task"
	"github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/pkg/config"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCfg := observability.LogConfigFromEnv()
	logCfg.ServiceVersion = cli.Version
	if os.Getenv("CADENCE_LOG_LEVEL") == "" {
		logCfg.Level = observability.LogLevelWarn
	}
	logger := observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	// mcp serve builds its own container.
	if !servingMCP(os.Args[1:]) {
		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to initialize container", "error", err)
			return 1
		}
		defer container.Close()

		cli.SetApp(app.NewCLIApp(container))
	}

	cli.AddCommand(task.Cmd)
	cli.AddCommand(project.Cmd)
	cli.AddCommand(schedule.Cmd)
	cli.AddCommand(calendar.Cmd)
	cli.AddCommand(settings.Cmd)
	cli.AddCommand(mcp.Cmd)

	if err := cli.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func servingMCP(args []string) bool {
	return len(args) > 0 && args[0] == "mcp"
}
