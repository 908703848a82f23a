// Command calendar-plugin-ics is a calendar plugin that serves the events of
// an ICS file or feed. The host launches it from CALENDAR_PLUGIN_PATHS; the
// calendar location is read from CADENCE_ICS_PLUGIN_SOURCE.
package main

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/plugin"
	"github.com/felixgeelhaar/cadence/pkg/observability"
	goplugin "github.com/hashicorp/go-plugin"
)

const sourceEnv = "CADENCE_ICS_PLUGIN_SOURCE"

func main() {
	location := os.Getenv(sourceEnv)
	if location == "" {
		fmt.Fprintf(os.Stderr, "%s is not set\n", sourceEnv)
		os.Exit(1)
	}

	logCfg := observability.LogConfigFromEnv()
	logCfg.Output = os.Stderr
	logCfg.ServiceName = "calendar-plugin-ics"
	logger := observability.NewLogger(logCfg)

	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: plugin.HandshakeConfig,
		Plugins:         plugin.PluginMap(newICSSource(location, logger)),
		GRPCServer:      goplugin.DefaultGRPCServer,
	})
}
