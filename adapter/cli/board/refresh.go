package board

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/choreboard/adapter/cli"
	"github.com/felixgeelhaar/choreboard/internal/board/application/commands"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the weekly refresh now",
	Long: `Rebuild the week: tasks generated from recurring templates are
regenerated four weeks ahead and weekday tasks from past weeks are pruned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		entry, err := app.ResolveEntry(cli.EntryFlag())
		if err != nil {
			return err
		}

		result, err := app.WeeklyRefreshHandler.Handle(cmd.Context(), commands.WeeklyRefreshCommand{EntryID: entry})
		if err != nil {
			return err
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), result)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Board refreshed: %d task(s)\n", result.TaskCount)
		return nil
	},
}
