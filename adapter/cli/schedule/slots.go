package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	slotsDate     string
	slotsMinutes  int
	slotsDeepWork bool
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Find free time slots",
	Long: `List free intervals inside your working hours that are not taken by
blocks or calendar events.

Examples:
  cadence schedule slots
  cadence schedule slots --date 2026-03-04 --min 60
  cadence schedule slots --deep-work`,
	Aliases: []string{"available", "free"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.FindSlotsHandler == nil {
			return cli.ErrNotInitialized
		}

		date, err := app.ParseDate(slotsDate)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		slots, err := app.FindSlotsHandler.Handle(cmd.Context(), queries.FindSlotsQuery{
			UserID:   app.CurrentUserID,
			Date:     date,
			Minutes:  slotsMinutes,
			DeepWork: slotsDeepWork,
		})
		if err != nil {
			return fmt.Errorf("failed to find slots: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(slots) == 0 {
			fmt.Fprintf(out, "No free slots on %s.\n", date.Format(cli.DateLayout))
			return nil
		}

		loc := app.Now().Location()
		table := cli.NewTable("START", "END", "MIN")
		total := 0
		for _, s := range slots {
			table.Row(s.Start.In(loc).Format(cli.ClockLayout), s.End.In(loc).Format(cli.ClockLayout), fmt.Sprintf("%d", s.Minutes))
			total += s.Minutes
		}
		fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Free on %s", date.Format("Monday, January 2"))))
		table.Render(out)
		fmt.Fprintf(out, "\n%d slots, %dh%02dm free\n", len(slots), total/60, total%60)
		return nil
	},
}

func init() {
	slotsCmd.Flags().StringVarP(&slotsDate, "date", "d", "", "date to search (YYYY-MM-DD), defaults to today")
	slotsCmd.Flags().IntVar(&slotsMinutes, "min", 15, "minimum slot length in minutes")
	slotsCmd.Flags().BoolVar(&slotsDeepWork, "deep-work", false, "only slots long enough for deep work")
}
