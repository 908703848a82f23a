package calendar

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/spf13/cobra"
)

var (
	addStart  string
	addEnd    string
	addAllDay bool
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a manual busy period",
	Long: `Block time the scheduler must plan around. Overlapping flexible blocks
move right away.

Examples:
  cadence calendar add "Dentist" --start "2026-03-04 14:00" --end "2026-03-04 15:30"
  cadence calendar add "Offsite" --start 2026-03-05 --end 2026-03-06 --all-day`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.AddManualEventHandler == nil {
			return cli.ErrNotInitialized
		}
		if addStart == "" || addEnd == "" {
			return errors.New("--start and --end are required")
		}

		parse := app.ParseDateTime
		if addAllDay {
			parse = app.ParseDate
		}
		start, err := parse(addStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		end, err := parse(addEnd)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}

		event, err := app.AddManualEventHandler.Handle(cmd.Context(), calendarApp.AddManualEventCommand{
			UserID:   app.CurrentUserID,
			Title:    args[0],
			Start:    start,
			End:      end,
			AllDay:   addAllDay,
			Location: app.Now().Location(),
		})
		if err != nil {
			return fmt.Errorf("failed to add event: %w", err)
		}

		loc := app.Now().Location()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s - %s)\n", cli.SuccessStyle.Render("Event added:"), event.Title(),
			event.Start().In(loc).Format(cli.DateTimeLayout), event.End().In(loc).Format(cli.DateTimeLayout))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addStart, "start", "", "start (\"YYYY-MM-DD HH:MM\", or YYYY-MM-DD with --all-day)")
	addCmd.Flags().StringVar(&addEnd, "end", "", "end (\"YYYY-MM-DD HH:MM\", or YYYY-MM-DD with --all-day)")
	addCmd.Flags().BoolVar(&addAllDay, "all-day", false, "cover whole days from start through end")
}
