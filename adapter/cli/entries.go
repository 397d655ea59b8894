package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Short:   "List configured households",
	Aliases: []string{"households"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		entries, err := app.ListEntriesHandler.Handle(cmd.Context())
		if err != nil {
			return err
		}
		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), map[string]any{"entries": entries})
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", e.EntryID, e.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(entriesCmd)
}
