package mcp

import (
	"context"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/mcp-go"
)

func registerCoreTools(srv *mcp.Server, ts toolset) {
	srv.Tool("cli.health").
		Description("Check CLI wiring health").
		Handler(ts.health)

	srv.Tool("cli.version").
		Description("Get CLI version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{
				"version":   cli.Version,
				"commit":    cli.Commit,
				"buildDate": cli.BuildDate,
			}, nil
		})
}

func (ts toolset) health(ctx context.Context, input struct{}) (map[string]any, error) {
	app := ts.app
	return map[string]any{
		"status":   "ok",
		"user_id":  app.CurrentUserID,
		"time":     app.Now(),
		"database": app.ListTasksHandler != nil,
		"calendar": app.CalendarSyncer != nil,
	}, nil
}
