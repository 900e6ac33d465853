package main

import (
	"context"
	"errors"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/log"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker, nil)

	if !cfg.AMQPEnabled() {
		cli.Fatal(logger, "Ledger event consumer needs a broker", errNoBroker)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	replica, err := cli.InitBackend(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize replica backend", err)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	logger.Info("Starting ledger event consumer",
		log.FieldOperation, log.OpStartup,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"backend", cfg.DataBackend)

	w := worker.NewSyncWorker(replica.Backend, logger)
	runErr := w.Run(ctx, client)

	processed, skipped := w.Stats()
	logger.Info("Ledger event consumer stopped",
		log.FieldOperation, log.OpShutdown,
		"processed", processed,
		"skipped", skipped)

	err = cli.Shutdown(logger, cfg.ShutdownTimeout,
		func(context.Context) error { return client.Close() },
		func(context.Context) error {
			if replica.Cleanup == nil {
				return nil
			}
			return replica.Cleanup()
		},
	)
	if runErr != nil {
		cli.Fatal(logger, "Ledger event consumer failed", runErr)
	}
	if err != nil {
		logger.Warn("Shutdown finished with errors", log.NewFields().WithError(err).ToSlice()...)
	}
}

var errNoBroker = errors.New("AMQP_URL is not set")
