package board

import (
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/choreboard/adapter/cli"
	"github.com/felixgeelhaar/choreboard/internal/board/application/commands"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

const maxBoardBytes = 1 << 20

var saveFile string

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Replace the board with a JSON document",
	Long: `Read a board document and save it. The document is normalized first:
unknown fields are dropped, missing ids are generated and recurring
templates are expanded.

Examples:
  choreboard board save --file board.json
  choreboard board show --json | jq '...' | choreboard board save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		entry, err := app.ResolveEntry(cli.EntryFlag())
		if err != nil {
			return err
		}

		in := cmd.InOrStdin()
		if saveFile != "" && saveFile != "-" {
			f, err := os.Open(saveFile)
			if err != nil {
				return fmt.Errorf("open board file: %w", err)
			}
			defer f.Close()
			in = f
		}
		raw, err := readBoard(in)
		if err != nil {
			return err
		}

		result, err := app.SaveBoardHandler.Handle(cmd.Context(), commands.SaveBoardCommand{EntryID: entry, Board: raw})
		if err != nil {
			return err
		}
		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), result.Board)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: %d people, %d tasks, %d templates\n",
			entry, len(result.Board.People), len(result.Board.Tasks), len(result.Board.Templates))
		return nil
	},
}

func readBoard(r io.Reader) (domain.RawBoard, error) {
	var doc map[string]any
	if err := sonic.ConfigStd.NewDecoder(io.LimitReader(r, maxBoardBytes)).Decode(&doc); err != nil {
		return domain.RawBoard{}, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if doc == nil {
		return domain.RawBoard{}, fmt.Errorf("%w: document must be an object", domain.ErrInvalidPayload)
	}
	return domain.RawBoardFromMap(doc), nil
}

func init() {
	saveCmd.Flags().StringVarP(&saveFile, "file", "f", "-", "board JSON file, - for stdin")
}
