package project

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/projects/application/commands"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [project-id] [active|on-hold|completed]",
	Short: "Change a project's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ChangeProjectStatusHandler == nil {
			return cli.ErrNotInitialized
		}

		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project ID: %w", err)
		}

		if err := app.ChangeProjectStatusHandler.Handle(cmd.Context(), commands.ChangeProjectStatusCommand{
			UserID:    app.CurrentUserID,
			ProjectID: projectID,
			Status:    args[1],
		}); err != nil {
			return fmt.Errorf("failed to change project status: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Project %s is now %s\n", projectID, args[1])

		if app.RecomputeHandler != nil {
			if err := app.RecomputeHandler.Submit(cmd.Context(), app.CurrentUserID, schedulingDomain.Rebuild{Time: app.Now()}); err != nil {
				return fmt.Errorf("failed to rebuild schedule: %w", err)
			}
		}
		return nil
	},
}
