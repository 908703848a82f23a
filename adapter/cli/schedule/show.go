package schedule

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	showDate string
	showJSON bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show today's schedule",
	Long: `Display your scheduled blocks for today or a specific date.

Examples:
  cadence schedule show
  cadence schedule show --date 2026-03-04`,
	Aliases: []string{"today", "view"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetScheduleHandler == nil {
			return cli.ErrNotInitialized
		}

		date, err := app.ParseDate(showDate)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		schedule, err := app.GetScheduleHandler.Handle(cmd.Context(), queries.GetScheduleQuery{
			UserID: app.CurrentUserID,
			Date:   date,
		})
		if err != nil {
			return fmt.Errorf("failed to get schedule: %w", err)
		}

		out := cmd.OutOrStdout()
		if showJSON {
			data, err := json.MarshalIndent(schedule, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Schedule for %s (%s)", date.Format("Monday, January 2, 2006"), schedule.Timezone)))
		if len(schedule.Blocks) == 0 {
			fmt.Fprintln(out, "  No scheduled blocks.")
			fmt.Fprintln(out, cli.DimStyle.Render("  Add work with 'cadence task add' or rebuild with 'cadence schedule recompute'."))
			return nil
		}

		renderBlocks(out, app, schedule.Blocks)
		fmt.Fprintf(out, "\n%d blocks, %dh%02dm scheduled\n", len(schedule.Blocks), schedule.TotalMinutes/60, schedule.TotalMinutes%60)
		return nil
	},
}

func init() {
	showCmd.Flags().StringVarP(&showDate, "date", "d", "", "date to show (YYYY-MM-DD), defaults to today")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}
