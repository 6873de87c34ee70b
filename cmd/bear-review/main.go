package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiveMeAjob-job/Bear-Review/adapter/cli"
	"github.com/GiveMeAjob-job/Bear-Review/internal/app"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/config"
	"github.com/GiveMeAjob-job/Bear-Review/pkg/observability"
)

// Set by -ldflags at build time.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Create context cancelled on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := observability.LoggerFromEnv()
	slog.SetDefault(logger)
	cli.SetLogger(logger)
	cli.Version, cli.Commit, cli.BuildDate = version, commit, buildDate

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", observability.ErrorKey, err)
		os.Exit(1)
	}

	// Without a container only version and help work; the other commands
	// report what is missing.
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Warn("failed to initialize container, running in limited mode", observability.ErrorKey, err)
	} else {
		defer container.Close()
		cli.SetService(container.ReviewService)
		cli.SetServer(container.APIServer)
	}

	cli.Execute(ctx)
}
