package task

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as complete",
	Long: `Mark a task as complete. Its remaining blocks are released and the
schedule is rebuilt.

Examples:
  cadence task done 3f6c1a52`,
	Aliases: []string{"complete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CompleteTaskHandler == nil {
			return cli.ErrNotInitialized
		}
		ctx := cmd.Context()

		taskID, err := app.ResolveTaskID(ctx, args[0])
		if err != nil {
			return err
		}

		if err := app.CompleteTaskHandler.Handle(ctx, commands.CompleteTaskCommand{
			UserID:        app.CurrentUserID,
			TaskID:        taskID,
			CorrelationID: cli.CorrelationID(ctx),
		}); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.SuccessStyle.Render("Task completed:"), taskID)
		return nil
	},
}
