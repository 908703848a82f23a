package schedule

import (
	"time"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild the schedule from scratch",
	Long: `Rescore every open task and repack all flexible blocks. Use it after
changing preferences or when the plan looks stale.`,
	Aliases: []string{"rebuild", "replan"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrigger(cmd, func(now time.Time) domain.Trigger { return domain.Rebuild{Time: now} })
	},
}

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run the overdue check now",
	Long: `Move overdue tasks forward and repack their blocks, as the worker
does on its interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrigger(cmd, func(now time.Time) domain.Trigger { return domain.Tick{Time: now} })
	},
}

func runTrigger(cmd *cobra.Command, newTrigger func(time.Time) domain.Trigger) error {
	app := cli.GetApp()
	if app == nil || app.RecomputeHandler == nil {
		return cli.ErrNotInitialized
	}
	ctx := cmd.Context()

	result, err := app.RecomputeHandler.Handle(ctx, commands.RecomputeCommand{
		UserID:        app.CurrentUserID,
		Trigger:       newTrigger(app.Now()),
		CorrelationID: cli.CorrelationID(ctx),
	})
	if err != nil {
		return err
	}

	renderReport(cmd.OutOrStdout(), app, result.Report)
	return nil
}
