package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"expenses/internal/cache"
	"expenses/internal/cli"
	"expenses/internal/core"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/services"

	"golang.org/x/sync/errgroup"
)

const cacheSweepInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp, nil)

	ctx, stop := cli.SignalContext()
	defer stop()

	res, err := cli.InitBackend(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	tracker := services.NewTracker(res.Backend, cli.InitPublisher(cfg, logger), core.ParseCategory(cfg.DefaultCategory))
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	srv := apphttp.NewServer(":"+cfg.Port, tracker, apphttp.Options{
		Currency: cfg.CurrencySuffix,
		Logger:   logger,
		Limiter:  limiter,
	})
	janitor := cache.NewJanitor(logger, srv.Charts().Cache())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expenses server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return limiter.Run(gctx) })
	g.Go(func() error { return janitor.Run(gctx, cacheSweepInterval) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		return cli.Shutdown(logger, cfg.ShutdownTimeout,
			srv.Shutdown,
			func(context.Context) error { return tracker.Close() },
			func(context.Context) error {
				if res.Cleanup == nil {
					return nil
				}
				return res.Cleanup()
			},
		)
	})

	if err := g.Wait(); err != nil {
		cli.Fatal(logger, "Server stopped with error", err)
	}
	logger.Info("Server stopped gracefully")
}
