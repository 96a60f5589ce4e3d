// Package main implements the entry point for the scout-api server, which
// performs governed object detection on uploaded images via the Gemini
// vision API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scout-api/internal/config"
	"github.com/phrazzld/scout-api/internal/platform/logger"
)

func main() {
	// Configuration failures happen before structured logging exists.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName,
		"governor_concurrency", cfg.Governor.Concurrency,
		"governor_min_interval_ms", cfg.Governor.MinIntervalMs,
		"history_enabled", cfg.Database.URL != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer app.close()

	if err := app.run(ctx); err != nil {
		appLogger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
