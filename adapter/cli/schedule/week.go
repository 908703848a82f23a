package schedule

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var weekOffset int

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show schedule for the week",
	Long: `Display your schedule from Monday to Sunday.

Examples:
  cadence schedule week           # Current week
  cadence schedule week -o 1      # Next week`,
	Aliases: []string{"w"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetScheduleHandler == nil {
			return cli.ErrNotInitialized
		}

		today, err := app.ParseDate("")
		if err != nil {
			return err
		}
		weekStart := getWeekStart(today).AddDate(0, 0, weekOffset*7)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Week of %s - %s",
			weekStart.Format("Jan 2"), weekStart.AddDate(0, 0, 6).Format("Jan 2, 2006"))))

		totalBlocks, totalMinutes := 0, 0
		for i := 0; i < 7; i++ {
			day := weekStart.AddDate(0, 0, i)
			schedule, err := app.GetScheduleHandler.Handle(cmd.Context(), queries.GetScheduleQuery{
				UserID: app.CurrentUserID,
				Date:   day,
			})
			if err != nil {
				return fmt.Errorf("failed to get schedule for %s: %w", day.Format(cli.DateLayout), err)
			}

			marker := "  "
			if day.Equal(today) {
				marker = "> "
			}
			header := fmt.Sprintf("%s%-9s %s", marker, day.Format("Monday"), day.Format("Jan 2"))
			if len(schedule.Blocks) == 0 {
				fmt.Fprintf(out, "\n%s %s\n", cli.HeaderStyle.Render(header), cli.DimStyle.Render("free"))
				continue
			}
			fmt.Fprintf(out, "\n%s %s\n", cli.HeaderStyle.Render(header),
				cli.DimStyle.Render(fmt.Sprintf("%d blocks, %dm", len(schedule.Blocks), schedule.TotalMinutes)))
			renderBlocks(out, app, schedule.Blocks)

			totalBlocks += len(schedule.Blocks)
			totalMinutes += schedule.TotalMinutes
		}

		fmt.Fprintf(out, "\n%d blocks, %dh%02dm scheduled this week\n", totalBlocks, totalMinutes/60, totalMinutes%60)
		return nil
	},
}

// getWeekStart returns the Monday of t's week.
func getWeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

func init() {
	weekCmd.Flags().IntVarP(&weekOffset, "offset", "o", 0, "week offset (0 = current week)")
}
