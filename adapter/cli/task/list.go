package task

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/spf13/cobra"
)

var (
	status   string
	quadrant string
	overdue  bool
	limit    int
	listJSON bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks ordered by priority score.

Filter Options:
  --status      active (default), all, todo, in-progress, completed, blocked
  --quadrant    urgent-important, not-urgent-important, urgent-not-important,
                not-urgent-not-important
  --overdue     Show only overdue tasks

Examples:
  cadence task list
  cadence task list --status all
  cadence task list --quadrant urgent-important -n 5`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListTasksHandler == nil {
			return cli.ErrNotInitialized
		}

		tasks, err := app.ListTasksHandler.Handle(cmd.Context(), queries.ListTasksQuery{
			UserID:   app.CurrentUserID,
			Status:   status,
			Quadrant: quadrant,
			Overdue:  overdue,
			Limit:    limit,
		})
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		loc := app.Now().Location()
		table := cli.NewTable("ID", "SCORE", "TITLE", "EST", "DUE", "STATUS")
		for _, t := range tasks {
			table.Row(
				cli.ShortID(t.ID),
				formatScore(t),
				cli.Truncate(t.Title, 40),
				formatMinutes(t.EstimatedMinutes),
				formatDue(t, loc),
				t.Status,
			)
		}
		fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Tasks (%d)", len(tasks))))
		table.Render(out)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&status, "status", "s", "", "filter by status (active, all, todo, in-progress, completed, blocked)")
	listCmd.Flags().StringVarP(&quadrant, "quadrant", "q", "", "filter by Eisenhower quadrant")
	listCmd.Flags().BoolVar(&overdue, "overdue", false, "show only overdue tasks")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "max number of tasks to show (0 = no limit)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}
