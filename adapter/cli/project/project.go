package project

import (
	"github.com/spf13/cobra"
)

// Cmd is the project command group
var Cmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long: `Create and list projects. Tasks in a sprint project score higher on
impact, and tasks of a completed project are no longer scheduled.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(statusCmd)
}
