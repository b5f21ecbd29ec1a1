// Package main is the entry point for the stockdash HTTP server.
//
// The server exposes the stock dashboard API (watchlist, price history,
// indicators) and the Markowitz portfolio optimizer, keeps the price cache
// warm in the background and persists the last good upstream series to
// SQLite so the dashboard keeps working when Yahoo Finance is unreachable.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockdash/stockdash/internal/config"
	"github.com/stockdash/stockdash/internal/di"
	"github.com/stockdash/stockdash/internal/server"
	"github.com/stockdash/stockdash/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("version", server.Version).
		Str("data_dir", cfg.DataDir).
		Msg("Starting stockdash")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	container.Scheduler.Start()

	// Initial warm-up so the first dashboard load does not wait on Yahoo
	go func() {
		if err := container.Scheduler.RunNow(jobs.WarmCache); err != nil {
			log.Warn().Err(err).Msg("Initial cache warm-up failed")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("stockdash started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	container.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
