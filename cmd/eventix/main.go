package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/eventix/docs"
	"github.com/kirinyoku/eventix/internal/app"
	"github.com/kirinyoku/eventix/internal/config"
)

// @title Eventix API
// @version 1.0
// @description Events and tickets with single-use redemption.
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
