package board

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/choreboard/adapter/cli"
	"github.com/felixgeelhaar/choreboard/internal/board/application/commands"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove tasks in the done column",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		entry, err := app.ResolveEntry(cli.EntryFlag())
		if err != nil {
			return err
		}

		result, err := app.RemoveDoneTasksHandler.Handle(cmd.Context(), commands.RemoveDoneTasksCommand{EntryID: entry})
		if err != nil {
			return err
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d done task(s)\n", result.Removed)
		return nil
	},
}
