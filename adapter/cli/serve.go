package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/choreboard/adapter/api"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr        string
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, websocket channel and board jobs",
	Long: `Serve the board API and the live websocket channel. Unless
--no-scheduler is given, the nightly cleanup and the weekly refresh of every
household run in the same process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		return runServer(cmd.Context(), app)
	},
}

func runServer(ctx context.Context, app *App) error {
	c := app.Container
	log := Logger()

	handler := api.NewBoardHandler(c.Registry, log)
	hub := api.NewHub(handler, log)
	c.Bus.RegisterConsumer(hub)

	cfg := api.DefaultServerConfig()
	cfg.Addr = c.Config.HTTPAddr
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	server := api.NewServer(cfg, api.ServerDeps{
		Handler: handler,
		Hub:     hub,
		Health:  c.Health,
		Metrics: c.Metrics,
		Logger:  log,
	})

	if err := c.StartEventConsumer(ctx); err != nil {
		log.Warn("board events from other processes will not be received", "error", err)
	}
	if !serveNoScheduler {
		go func() {
			if err := c.Scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("scheduler stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "do not run the cleanup and refresh jobs")
	rootCmd.AddCommand(serveCmd)
}
