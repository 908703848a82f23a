package calendar

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/spf13/cobra"
)

var (
	listDays   int
	listSource string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List imported calendar events",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListEventsHandler == nil {
			return cli.ErrNotInitialized
		}

		from := app.Now()
		events, err := app.ListEventsHandler.Handle(cmd.Context(), calendarApp.ListEventsQuery{
			UserID: app.CurrentUserID,
			From:   from,
			To:     from.AddDate(0, 0, listDays),
			Source: listSource,
		})
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintf(out, "No events in the next %d days.\n", listDays)
			return nil
		}

		loc := from.Location()
		table := cli.NewTable("START", "END", "TITLE", "SOURCE")
		for _, e := range events {
			start, end := e.Start.In(loc).Format("Mon Jan 2 15:04"), e.End.In(loc).Format(cli.ClockLayout)
			if e.AllDay {
				start, end = e.Start.In(loc).Format("Mon Jan 2"), "all day"
			}
			source := e.Source
			if e.Manual {
				source = "manual entry"
			}
			table.Row(start, end, cli.Truncate(e.Title, 40), source)
		}
		table.Render(out)
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listDays, "days", 7, "days ahead to list")
	listCmd.Flags().StringVar(&listSource, "source", "", "only events from this source")
}
