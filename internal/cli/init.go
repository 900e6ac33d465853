// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/expenses, cmd/expenses-tui and cmd/expenses-events.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/services"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default. out defaults to stdout.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// Fatal logs err and exits. Used for startup failures only.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.NewFields().WithError(err).ToSlice()...)
	os.Exit(1)
}

// InitBackend creates the ledger backend named by cfg.
func InitBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// InitPublisher connects the ledger event publisher. It returns a nil
// publisher when AMQP is not configured or the broker is unreachable, so the
// ledger keeps working without events.
func InitPublisher(cfg *config.Config, logger *log.Logger) services.EventPublisher {
	if !cfg.AMQPEnabled() {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WithComponent(log.ComponentAMQP).Warn("Ledger events unavailable",
			log.NewFields().WithError(err).WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
		return nil
	}
	logger.WithComponent(log.ComponentAMQP).Info("Publishing ledger events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Shutdown runs each step with a shared deadline and joins their errors.
func Shutdown(logger *log.Logger, timeout time.Duration, steps ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if step == nil {
			continue
		}
		if err := step(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
	}
	return errors.Join(errs...)
}
