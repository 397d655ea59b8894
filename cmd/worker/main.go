package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/felixgeelhaar/choreboard/adapter/cli"
	"github.com/felixgeelhaar/choreboard/internal/app"
	"github.com/felixgeelhaar/choreboard/pkg/config"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting choreboard worker")

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
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

	// Saves made by the API process must reach the worker's stores before a
	// job rewrites the board.
	if err := container.StartEventConsumer(ctx); err != nil {
		logger.Warn("board events from other processes will not be received", "error", err)
	}

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg.WorkerHealthAddr, container, logger)
	}

	if err := container.Scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler stopped", "error", err)
	}
	logger.Info("worker stopped")
}

func startHealthServer(ctx context.Context, addr string, container *app.Container, logger *slog.Logger) {
	healthSrv := &http.Server{
		Addr:              addr,
		Handler:           healthMux(container),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", addr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}

func healthMux(container *app.Container) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"instance": container.InstanceID,
			"triggers": container.Scheduler.Statuses(),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		health := container.Health.GetOverallHealth(checkCtx)
		if health.Status == observability.HealthStatusUnhealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"checks": health.Checks,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigStd.NewEncoder(w).Encode(body)
}
