package task

import (
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	minutes       int
	description   string
	dueDate       string
	projectID     string
	tags          []string
	dependsOn     []string
	memoryLinks   []string
	workMode      string
	cognitiveLoad string
)

var createCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a new task",
	Long: `Create a new task and schedule it into your working hours.

Examples:
  cadence task add "Write quarterly report" -m 90 --due 2026-03-06
  cadence task add "Review PR" -m 30 --mode reactive --load light
  cadence task add "Design review" --tag design --project 6f1c...`,
	Aliases: []string{"create", "new"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateTaskHandler == nil {
			return cli.ErrNotInitialized
		}
		ctx := cmd.Context()

		createCmd := commands.CreateTaskCommand{
			UserID:           app.CurrentUserID,
			Title:            args[0],
			Description:      description,
			EstimatedMinutes: minutes,
			Tags:             tags,
			MemoryLinks:      memoryLinks,
			WorkMode:         workMode,
			CognitiveLoad:    cognitiveLoad,
			CorrelationID:    cli.CorrelationID(ctx),
		}

		if dueDate != "" {
			due, err := app.ParseDue(dueDate)
			if err != nil {
				return err
			}
			createCmd.DueDate = due
		}
		if projectID != "" {
			id, err := uuid.Parse(projectID)
			if err != nil {
				return fmt.Errorf("invalid project ID: %w", err)
			}
			createCmd.ProjectID = &id
		}
		deps, err := parseIDs(dependsOn)
		if err != nil {
			return err
		}
		createCmd.Dependencies = deps

		result, err := app.CreateTaskHandler.Handle(ctx, createCmd)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", cli.SuccessStyle.Render("Task created:"), result.TaskID)
		fmt.Fprintf(out, "  title: %s\n", args[0])
		if minutes > 0 {
			fmt.Fprintf(out, "  estimate: %s\n", formatMinutes(minutes))
		}
		return nil
	},
}

func init() {
	createCmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "estimated duration in minutes")
	createCmd.Flags().StringVar(&description, "description", "", "task description")
	createCmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	createCmd.Flags().StringVar(&projectID, "project", "", "project ID")
	createCmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tags (repeatable)")
	createCmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "IDs of tasks this one depends on")
	createCmd.Flags().StringSliceVar(&memoryLinks, "link", nil, "related notes or documents")
	createCmd.Flags().StringVar(&workMode, "mode", "", "work mode (deep-work, admin, reactive, creative)")
	createCmd.Flags().StringVar(&cognitiveLoad, "load", "", "cognitive load (light, moderate, heavy)")
}
