// Package mcp exposes the cadence commands as MCP tools, resources and
// prompts.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/mcp-go"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// RegisterCLITools registers MCP tools that mirror CLI functionality.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	ts := toolset{app: deps.App}
	registerCoreTools(srv, ts)
	registerTaskTools(srv, ts)
	registerProjectTools(srv, ts)
	registerScheduleTools(srv, ts)
	registerCalendarTools(srv, ts)
	registerPreferenceTools(srv, ts)
	return nil
}

// toolset holds the tool handlers; each method backs one tool.
type toolset struct {
	app *cli.App
}

var errNoDatabase = errors.New("requires database connection")
