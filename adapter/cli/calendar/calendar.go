package calendar

import (
	"github.com/spf13/cobra"
)

// Cmd is the calendar command group
var Cmd = &cobra.Command{
	Use:   "calendar",
	Short: "Import and inspect calendar commitments",
	Long: `Import busy time from Google, Outlook, CalDAV, ICS files and plugins,
add manual events, and list what the scheduler plans around.`,
	Aliases: []string{"cal"},
}

func init() {
	Cmd.AddCommand(syncCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
}
