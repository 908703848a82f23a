// Package settings manages the scheduling preferences of the current user.
package settings

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/cadence/adapter/cli"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/cadence/internal/scheduling/infrastructure/prefsfile"
	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:     "prefs",
	Short:   "Show and change scheduling preferences",
	Aliases: []string{"settings", "preferences"},
}

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the preferences the scheduler uses",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return cli.ErrNotInitialized
		}
		prefs, err := app.UserPreferences(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load preferences: %w", err)
		}
		if showJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(prefs)
		}
		return prefsfile.Encode(cmd.OutOrStdout(), prefs)
	},
}

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Store preferences from a YAML file and rebuild the schedule",
	Long: `Read a YAML preferences file, store it for the current user and rebuild
the schedule under the new rules. Keys missing from the file keep their
defaults; unknown keys are rejected.

Example:
  cadence prefs show > prefs.yaml
  $EDITOR prefs.yaml
  cadence prefs load prefs.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Preferences == nil {
			return cli.ErrNotInitialized
		}
		prefs, err := prefsfile.Load(args[0])
		if err != nil {
			return err
		}
		return store(cmd, app, prefs, "Preferences loaded from "+args[0])
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the configured default preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Preferences == nil {
			return cli.ErrNotInitialized
		}
		return store(cmd, app, app.DefaultPreferences, "Preferences reset")
	},
}

func store(cmd *cobra.Command, app *cli.App, prefs schedulingDomain.UserPreferences, message string) error {
	ctx := cmd.Context()
	if err := prefs.Validate(); err != nil {
		return err
	}
	if err := app.Preferences.Save(ctx, app.CurrentUserID, prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.SuccessStyle.Render(message))
	if app.RecomputeHandler == nil {
		return nil
	}
	if err := app.RecomputeHandler.Submit(ctx, app.CurrentUserID, schedulingDomain.Rebuild{Time: app.Now()}); err != nil {
		return fmt.Errorf("preferences saved but rebuild failed: %w", err)
	}
	fmt.Fprintln(out, cli.DimStyle.Render("Schedule rebuilt."))
	return nil
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")

	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(loadCmd)
	Cmd.AddCommand(resetCmd)
}
