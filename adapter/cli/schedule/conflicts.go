package schedule

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var conflictsDays int

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List blocks that overlap calendar events",
	Long: `List scheduled blocks that overlap calendar events, together with the
configured conflict policy.

Examples:
  cadence schedule conflicts
  cadence schedule conflicts --days 14`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.DetectConflictsHandler == nil {
			return cli.ErrNotInitialized
		}

		query := queries.DetectConflictsQuery{UserID: app.CurrentUserID}
		if conflictsDays > 0 {
			query.From = app.Now()
			query.To = query.From.AddDate(0, 0, conflictsDays)
		}
		result, err := app.DetectConflictsHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to detect conflicts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(result.Conflicts) == 0 {
			fmt.Fprintf(out, "%s (policy: %s)\n", cli.SuccessStyle.Render("No conflicts."), result.Policy)
			return nil
		}

		loc := app.Now().Location()
		table := cli.NewTable("BLOCK", "WHEN", "EVENT", "SOURCE", "OVERLAP")
		for _, c := range result.Conflicts {
			table.Row(
				cli.ShortID(c.BlockID),
				fmt.Sprintf("%s-%s", c.BlockStart.In(loc).Format("Mon 15:04"), c.BlockEnd.In(loc).Format(cli.ClockLayout)),
				cli.Truncate(c.EventTitle, 32),
				c.Source,
				fmt.Sprintf("%dm", c.OverlapMinutes),
			)
		}
		fmt.Fprintln(out, cli.ErrorStyle.Render(fmt.Sprintf("%d conflicts", len(result.Conflicts)))+
			cli.DimStyle.Render(fmt.Sprintf(" (policy: %s)", result.Policy)))
		table.Render(out)
		return nil
	},
}

func init() {
	conflictsCmd.Flags().IntVar(&conflictsDays, "days", 0, "days ahead to check (default 7)")
}
