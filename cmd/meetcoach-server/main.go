// Package main provides the meetcoach detection server: a websocket gateway
// in front of the in-memory detection engine.
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

	"github.com/dfalkner/meetcoach/internal/config"
	"github.com/dfalkner/meetcoach/internal/engine"
	"github.com/dfalkner/meetcoach/internal/metrics"
	"github.com/dfalkner/meetcoach/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup() //nolint:errcheck // best effort on shutdown
	slog.SetDefault(logger)

	slog.Info("starting meetcoach-server", "addr", cfg.ListenAddr)

	collector := metrics.NewCollector()
	hub := server.NewHub(logger)
	eng := engine.New(&cfg.Detection, hub, engine.Options{
		Metrics: collector,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go eng.RunSweeper(ctx)

	mux := http.NewServeMux()
	gateway := server.NewGateway(eng, hub, collector, logger)
	gateway.Routes(mux)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
