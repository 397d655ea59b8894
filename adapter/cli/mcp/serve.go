package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/choreboard/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/choreboard/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		c := app.Container

		err = mcpinternal.Serve(cmd.Context(), c.Config, c.Registry, cli.Version, cli.Logger())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
