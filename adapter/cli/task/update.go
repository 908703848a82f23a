package task

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/spf13/cobra"
)

var (
	updateTitle   string
	updateMinutes int
	updateDue     string
	clearDue      bool
	updateTags    []string
	updateStatus  string
	updateMode    string
	updateLoad    string
)

var updateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Update a task",
	Long: `Update the properties of an existing task. Changes to the estimate,
due date or status rebuild the schedule.

Examples:
  cadence task update 3f6c1a52 --title "New title"
  cadence task update 3f6c1a52 -m 60 --due 2026-03-06
  cadence task update 3f6c1a52 --status blocked
  cadence task update 3f6c1a52 --clear-due`,
	Aliases: []string{"edit"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateTaskHandler == nil {
			return cli.ErrNotInitialized
		}
		ctx := cmd.Context()

		taskID, err := app.ResolveTaskID(ctx, args[0])
		if err != nil {
			return err
		}

		updateTaskCmd := commands.UpdateTaskCommand{
			UserID:        app.CurrentUserID,
			TaskID:        taskID,
			ClearDueDate:  clearDue,
			CorrelationID: cli.CorrelationID(ctx),
		}
		flags := cmd.Flags()
		changed := clearDue

		if flags.Changed("title") {
			updateTaskCmd.Title = &updateTitle
			changed = true
		}
		if flags.Changed("minutes") {
			updateTaskCmd.EstimatedMinutes = &updateMinutes
			changed = true
		}
		if flags.Changed("due") {
			due, err := app.ParseDue(updateDue)
			if err != nil {
				return err
			}
			updateTaskCmd.DueDate = due
			changed = true
		}
		if flags.Changed("tag") {
			updateTaskCmd.Tags = &updateTags
			changed = true
		}
		if flags.Changed("status") {
			updateTaskCmd.Status = &updateStatus
			changed = true
		}
		if flags.Changed("mode") {
			updateTaskCmd.WorkMode = &updateMode
			changed = true
		}
		if flags.Changed("load") {
			updateTaskCmd.CognitiveLoad = &updateLoad
			changed = true
		}

		if !changed {
			return errors.New("no updates specified - use --help to see available options")
		}
		if clearDue && updateTaskCmd.DueDate != nil {
			return errors.New("--due and --clear-due cannot be combined")
		}

		if err := app.UpdateTaskHandler.Handle(ctx, updateTaskCmd); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.SuccessStyle.Render("Task updated:"), taskID)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().IntVarP(&updateMinutes, "minutes", "m", 0, "new estimate in minutes")
	updateCmd.Flags().StringVar(&updateDue, "due", "", "new due date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	updateCmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	updateCmd.Flags().StringSliceVarP(&updateTags, "tag", "t", nil, "replace the tags")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "new status (todo, in-progress, blocked)")
	updateCmd.Flags().StringVar(&updateMode, "mode", "", "work mode (deep-work, admin, reactive, creative)")
	updateCmd.Flags().StringVar(&updateLoad, "load", "", "cognitive load (light, moderate, heavy)")
}
