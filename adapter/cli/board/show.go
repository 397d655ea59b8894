package board

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/choreboard/adapter/cli"
	"github.com/felixgeelhaar/choreboard/internal/board/application/queries"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the board",
	Long: `Print the board column by column.

Examples:
  choreboard board show
  choreboard board show --entry cabin --json`,
	Aliases: []string{"get"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		entry, err := app.ResolveEntry(cli.EntryFlag())
		if err != nil {
			return err
		}

		b, err := app.GetBoardHandler.Handle(cmd.Context(), queries.GetBoardQuery{EntryID: entry})
		if err != nil {
			return err
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), b)
		}
		printBoard(cmd.OutOrStdout(), b, cli.Verbose())
		return nil
	},
}

func printBoard(w io.Writer, b *domain.Board, withIDs bool) {
	names := make(map[string]string, len(b.People))
	people := make([]string, 0, len(b.People))
	for _, p := range b.People {
		names[p.ID] = p.Name
		people = append(people, fmt.Sprintf("%s (%s)", p.Name, p.ID))
	}
	fmt.Fprintf(w, "People: %s\n", strings.Join(people, ", "))

	for _, col := range domain.AllColumns {
		count := b.CountInColumn(col)
		if count == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d)\n%s\n", strings.ToUpper(string(col)), count, strings.Repeat("-", 40))
		for _, t := range b.Tasks {
			if t.Column != col {
				continue
			}
			assignees := make([]string, 0, len(t.Assignees))
			for _, id := range t.Assignees {
				if name, ok := names[id]; ok {
					assignees = append(assignees, name)
				} else {
					assignees = append(assignees, id)
				}
			}
			marker := " "
			if t.Generated() {
				marker = "*"
			}
			if withIDs {
				fmt.Fprintf(w, " %s %-32s %-20s %s\n", marker, t.Title, strings.Join(assignees, ", "), t.ID)
				continue
			}
			fmt.Fprintf(w, " %s %-32s %s\n", marker, t.Title, strings.Join(assignees, ", "))
		}
	}
	if len(b.Templates) > 0 {
		fmt.Fprintf(w, "\n%d recurring template(s); * marks generated tasks\n", len(b.Templates))
	}
}
