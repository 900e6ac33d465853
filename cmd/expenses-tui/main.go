package main

import (
	"fmt"
	"os"

	"expenses/internal/cli"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/tui"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to stderr and only warnings
	// and errors are shown.
	if cfg.LogLevel == "info" || cfg.LogLevel == "debug" {
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg, log.ComponentTUI, os.Stderr)

	ctx, stop := cli.SignalContext()
	defer stop()

	res, err := cli.InitBackend(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	tracker := services.NewTracker(res.Backend, cli.InitPublisher(cfg, logger), core.ParseCategory(cfg.DefaultCategory))

	runErr := tui.Run(ctx, tui.Config{Tracker: tracker, Currency: cfg.CurrencySuffix})

	if err := tracker.Close(); err != nil {
		logger.Warn("Failed to close tracker", log.NewFields().WithError(err).ToSlice()...)
	}
	if res.Cleanup != nil {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close backend", log.NewFields().WithError(err).ToSlice()...)
		}
	}
	if runErr != nil {
		cli.Fatal(logger, "Terminal UI failed", runErr)
	}
}
