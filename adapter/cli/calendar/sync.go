package calendar

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	calendarApp "github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/spf13/cobra"
)

var syncSource string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import events from the configured calendars",
	Long: `Import events from every configured calendar source. A failing source
keeps its previously imported events; the others are still updated.

Examples:
  cadence calendar sync
  cadence calendar sync --source google`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return cli.ErrNotInitialized
		}
		if app.CalendarSyncer == nil {
			return errors.New("calendar sync not configured")
		}
		ctx := cmd.Context()

		var (
			report *calendarApp.SyncReport
			err    error
		)
		if syncSource != "" {
			source, parseErr := domain.ParseSource(syncSource)
			if parseErr != nil {
				return parseErr
			}
			report, err = app.CalendarSyncer.SyncSource(ctx, app.CurrentUserID, source)
		} else {
			report, err = app.CalendarSyncer.SyncAll(ctx, app.CurrentUserID)
		}
		if err != nil {
			return fmt.Errorf("calendar sync failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(report.Results) == 0 {
			fmt.Fprintln(out, "No calendar sources configured.")
			return nil
		}

		table := cli.NewTable("SOURCE", "EVENTS", "RESULT")
		for _, r := range report.Results {
			result := cli.DimStyle.Render("unchanged")
			switch {
			case r.Skipped:
				result = cli.WarnStyle.Render("skipped, breaker open")
			case r.Err != nil:
				result = cli.ErrorStyle.Render("failed: ") + r.Err.Error()
			case r.Changed:
				result = cli.SuccessStyle.Render("updated")
			}
			table.Row(r.Source.DisplayName(), fmt.Sprintf("%d", r.Events), result)
		}
		table.Render(out)

		if report.Changed() {
			fmt.Fprintln(out, "\nSchedule rebuilt around the new events.")
		}
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d sources failed", len(failed), len(report.Results))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncSource, "source", "", "sync only this source (google, outlook, caldav, manual, plugin)")
}
