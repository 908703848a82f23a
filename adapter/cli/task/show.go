package task

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Long: `Display a task together with its priority breakdown.

Examples:
  cadence task show 3f6c1a52
  cadence task show 3f6c1a52-8d0e-4b7a-9c21-6e5d4f3a2b10`,
	Aliases: []string{"get", "view"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetTaskHandler == nil {
			return cli.ErrNotInitialized
		}
		ctx := cmd.Context()

		taskID, err := app.ResolveTaskID(ctx, args[0])
		if err != nil {
			return err
		}

		t, err := app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{
			UserID: app.CurrentUserID,
			TaskID: taskID,
		})
		if err != nil {
			return fmt.Errorf("failed to get task: %w", err)
		}

		out := cmd.OutOrStdout()
		loc := app.Now().Location()
		fmt.Fprintf(out, "%s %s\n", cli.TitleStyle.Render("Task:"), t.ID)
		fmt.Fprintf(out, "  Title:       %s\n", t.Title)
		fmt.Fprintf(out, "  Status:      %s\n", t.Status)
		if t.Description != "" {
			fmt.Fprintf(out, "  Description: %s\n", t.Description)
		}
		fmt.Fprintf(out, "  Score:       %s\n", formatScore(*t))
		fmt.Fprintf(out, "  Quadrant:    %s\n", cli.QuadrantStyle(t.Quadrant).Render(t.Quadrant))
		fmt.Fprintf(out, "  Urgency:     %d  Impact: %d  Memory: %d\n", t.Urgency, t.Impact, t.MemoryContext)
		if t.Locked && t.LockReason != "" {
			fmt.Fprintf(out, "  Lock reason: %s\n", t.LockReason)
		}
		fmt.Fprintf(out, "  Estimate:    %s\n", formatMinutes(t.EstimatedMinutes))
		fmt.Fprintf(out, "  Due:         %s\n", formatDue(*t, loc))
		fmt.Fprintf(out, "  Mode:        %s (%s load)\n", t.WorkMode, t.CognitiveLoad)
		if len(t.Tags) > 0 {
			fmt.Fprintf(out, "  Tags:        %s\n", strings.Join(t.Tags, ", "))
		}
		if t.Dependencies > 0 || t.MemoryLinks > 0 {
			fmt.Fprintf(out, "  Links:       %d dependencies, %d notes\n", t.Dependencies, t.MemoryLinks)
		}
		if t.ProjectID != nil {
			fmt.Fprintf(out, "  Project:     %s\n", *t.ProjectID)
		}
		fmt.Fprintf(out, "  Created:     %s\n", t.CreatedAt.In(loc).Format(cli.DateTimeLayout))
		if t.CompletedAt != nil {
			fmt.Fprintf(out, "  Completed:   %s\n", t.CompletedAt.In(loc).Format(cli.DateTimeLayout))
		}
		return nil
	},
}
