package schedule

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	"github.com/felixgeelhaar/cadence/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

// Cmd is the schedule command group
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "View and rebuild your schedule",
	Long:  `View scheduled blocks, free slots and calendar conflicts, or rebuild the plan.`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(weekCmd)
	Cmd.AddCommand(slotsCmd)
	Cmd.AddCommand(conflictsCmd)
	Cmd.AddCommand(recomputeCmd)
	Cmd.AddCommand(tickCmd)
}

func renderBlocks(out io.Writer, app *cli.App, blocks []queries.BlockDTO) {
	loc := app.Now().Location()
	table := cli.NewTable("TIME", "TASK", "MIN", "TYPE")
	for _, b := range blocks {
		span := fmt.Sprintf("%s-%s", b.Start.In(loc).Format(cli.ClockLayout), b.End.In(loc).Format(cli.ClockLayout))
		kind := b.Type
		if !b.Flexible {
			kind = cli.LockedStyle.Render(kind + " fixed")
		}
		table.Row(span, cli.Truncate(b.Title, 40), fmt.Sprintf("%d", b.Minutes), kind)
	}
	table.Render(out)
}

func renderReport(out io.Writer, app *cli.App, report domain.Report) {
	loc := app.Now().Location()
	if report.Skipped != "" {
		fmt.Fprintf(out, "%s %s\n", cli.DimStyle.Render("Nothing to do:"), report.Skipped)
		return
	}
	fmt.Fprintf(out, "%s %d blocks (was %d)\n", cli.SuccessStyle.Render("Schedule rebuilt:"), report.BlocksAfter, report.BlocksBefore)

	for _, a := range report.UnderScheduled {
		fmt.Fprintf(out, "  %s %s: %d of %d minutes placed\n",
			cli.WarnStyle.Render("under-scheduled"), a.Title, a.Allocated, a.Requested)
	}
	for _, c := range report.OverdueChanges {
		fmt.Fprintf(out, "  %s %s: due %s -> %s (%s)\n",
			cli.WarnStyle.Render("rescheduled"), c.Title,
			c.PreviousDue.In(loc).Format(cli.DateTimeLayout), c.NewDue.In(loc).Format(cli.DateTimeLayout), c.Tier)
	}
	for _, c := range report.Conflicts {
		fmt.Fprintf(out, "  %s %s overlaps %q at %s\n",
			cli.ErrorStyle.Render("conflict"), cli.ShortID(c.BlockID), c.EventTitle, c.EventStart.In(loc).Format(cli.DateTimeLayout))
	}
}
