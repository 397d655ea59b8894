// Package board holds the board command group.
package board

import (
	"github.com/spf13/cobra"
)

// Cmd is the board command group
var Cmd = &cobra.Command{
	Use:   "board",
	Short: "Show and change a household board",
	Long:  `Show, save, clean up and refresh the weekly chore board of a household.`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(saveCmd)
	Cmd.AddCommand(cleanupCmd)
	Cmd.AddCommand(refreshCmd)
}
