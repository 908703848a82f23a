package task

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/productivity/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Create, list, lock, complete, and update your tasks.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(lockCmd)
	Cmd.AddCommand(unlockCmd)
	Cmd.AddCommand(completeCmd)
}

func parseIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func formatDue(t queries.TaskDTO, loc *time.Location) string {
	if t.DueDate == nil {
		return "-"
	}
	due := t.DueDate.In(loc).Format(cli.DateTimeLayout)
	if t.Overdue {
		return cli.ErrorStyle.Render(due + " overdue")
	}
	return due
}

func formatScore(t queries.TaskDTO) string {
	score := fmt.Sprintf("%3d", t.Score)
	if t.Locked {
		return cli.LockedStyle.Render(score + " locked")
	}
	return cli.QuadrantStyle(t.Quadrant).Render(score)
}
