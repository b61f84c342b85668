// Command api serves the season cycle engine's read-only status API
// (SPEC_FULL §A.6).
//
// Usage:
//
//	season-api
//	API_PORT=8080 season-api
//
// @title Season Cycle Engine Status API
// @version 1.0.0
// @description Read-only status and inspection endpoints over the season cycle engine's dynasty state and event store.
// @host localhost:8080
// @BasePath /
// @schemes http
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/sim-dynasty/season-cycle-engine/internal/api"
	"github.com/sim-dynasty/season-cycle-engine/internal/config"
	"github.com/sim-dynasty/season-cycle-engine/internal/storage"

	_ "github.com/sim-dynasty/season-cycle-engine/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load(".env")
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("storage opened", "path", cfg.DatabasePath)

	router := api.NewRouter(db, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting status API", "addr", addr, "docs", fmt.Sprintf("http://%s/docs/", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
