package project

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/projects/application/commands"
	"github.com/spf13/cobra"
)

var (
	description string
	projectType string
)

var createCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a new project",
	Long: `Create a new project.

Examples:
  cadence project add "Website relaunch"
  cadence project add "Sprint 14" --type sprint`,
	Aliases: []string{"create", "new"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateProjectHandler == nil {
			return cli.ErrNotInitialized
		}

		result, err := app.CreateProjectHandler.Handle(cmd.Context(), commands.CreateProjectCommand{
			UserID:      app.CurrentUserID,
			Name:        args[0],
			Description: description,
			Type:        projectType,
		})
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.SuccessStyle.Render("Project created:"), result.ProjectID)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&description, "description", "d", "", "project description")
	createCmd.Flags().StringVar(&projectType, "type", "standard", "project type (standard, sprint)")
}
