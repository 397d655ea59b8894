package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/choreboard/adapter/cli"
	"github.com/felixgeelhaar/choreboard/internal/app"
	mcpinternal "github.com/felixgeelhaar/choreboard/internal/mcp"
	"github.com/felixgeelhaar/choreboard/pkg/config"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.LoggerForEnvironment(cfg.AppEnv, cfg.LogLevel, cli.Version, os.Stdout)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if err := container.StartEventConsumer(ctx); err != nil {
		logger.Warn("board events from other processes will not be received", "error", err)
	}

	if err := mcpinternal.Serve(ctx, cfg, container.Registry, cli.Version, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		container.Close()
		os.Exit(1)
	}
}
