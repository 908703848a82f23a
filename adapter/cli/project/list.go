package project

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/projects/application/queries"
	"github.com/spf13/cobra"
)

var activeOnly bool

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List projects",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListProjectsHandler == nil {
			return cli.ErrNotInitialized
		}

		projects, err := app.ListProjectsHandler.Handle(cmd.Context(), queries.ListProjectsQuery{
			UserID:     app.CurrentUserID,
			ActiveOnly: activeOnly,
		})
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(projects) == 0 {
			fmt.Fprintln(out, "No projects found.")
			return nil
		}

		table := cli.NewTable("ID", "NAME", "TYPE", "STATUS")
		for _, p := range projects {
			table.Row(cli.ShortID(p.ID), cli.Truncate(p.Name, 40), p.Type, p.Status)
		}
		table.Render(out)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&activeOnly, "active", false, "show only active projects")
}
