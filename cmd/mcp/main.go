package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/kirillkom/meeting-assistant/internal/adapters/mcp"
	"github.com/kirillkom/meeting-assistant/internal/bootstrap"
	"github.com/kirillkom/meeting-assistant/internal/config"
	"github.com/kirillkom/meeting-assistant/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	// stdout carries MCP frames.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("mcp_serving_stdio", "version", version)
	if err := mcpadapter.NewServer(app.QueryUC, app.MeetingUC, app.DefaultStrategy, version).ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
