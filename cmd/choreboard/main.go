package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/choreboard/adapter/cli"
	"github.com/felixgeelhaar/choreboard/adapter/cli/board"
	"github.com/felixgeelhaar/choreboard/adapter/cli/mcp"
	"github.com/felixgeelhaar/choreboard/internal/app"
	"github.com/felixgeelhaar/choreboard/pkg/config"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := observability.LoggerFromEnv()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.LoggerForEnvironment(cfg.AppEnv, cfg.LogLevel, cli.Version, os.Stderr)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// In development, version and help still work without storage
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		cli.SetApp(cli.NewApp(container))
	}

	// Register commands
	cli.AddCommand(board.Cmd)
	cli.AddCommand(mcp.Cmd)

	err = cli.Execute(ctx)
	if container != nil {
		container.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
