package task

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/spf13/cobra"
)

var (
	lockScore  int
	lockReason string
)

var lockCmd = &cobra.Command{
	Use:   "lock [task-id]",
	Short: "Pin a task's priority score",
	Long: `Pin a task's priority score so recomputes leave it alone. Without
--score the current score is kept.

Examples:
  cadence task lock 3f6c1a52 --score 95 --reason "exec ask"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.LockPriorityHandler == nil {
			return cli.ErrNotInitialized
		}
		ctx := cmd.Context()

		taskID, err := app.ResolveTaskID(ctx, args[0])
		if err != nil {
			return err
		}

		score := lockScore
		if !cmd.Flags().Changed("score") {
			if app.GetTaskHandler == nil {
				return cli.ErrNotInitialized
			}
			current, err := app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{UserID: app.CurrentUserID, TaskID: taskID})
			if err != nil {
				return fmt.Errorf("failed to get task: %w", err)
			}
			score = current.Score
		}
		locked, err := app.LockPriorityHandler.Handle(ctx, commands.LockPriorityCommand{
			UserID:        app.CurrentUserID,
			TaskID:        taskID,
			Score:         score,
			Reason:        lockReason,
			LockedBy:      "cli",
			CorrelationID: cli.CorrelationID(ctx),
		})
		if err != nil {
			return fmt.Errorf("failed to lock priority: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s at %d\n", cli.LockedStyle.Render("Priority locked:"), taskID, locked)
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock [task-id]",
	Short: "Release a pinned priority score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UnlockPriorityHandler == nil {
			return cli.ErrNotInitialized
		}
		ctx := cmd.Context()

		taskID, err := app.ResolveTaskID(ctx, args[0])
		if err != nil {
			return err
		}

		if err := app.UnlockPriorityHandler.Handle(ctx, commands.UnlockPriorityCommand{
			UserID:        app.CurrentUserID,
			TaskID:        taskID,
			CorrelationID: cli.CorrelationID(ctx),
		}); err != nil {
			return fmt.Errorf("failed to unlock priority: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.SuccessStyle.Render("Priority unlocked:"), taskID)
		return nil
	},
}

func init() {
	lockCmd.Flags().IntVar(&lockScore, "score", 0, "score to pin (0-100)")
	lockCmd.Flags().StringVar(&lockReason, "reason", "", "why the score is pinned")
}
