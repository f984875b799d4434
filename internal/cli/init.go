// Package cli provides the billsctl commands and the initialization helpers
// shared by cmd/bills, cmd/bills-worker and cmd/billsctl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bills/internal/config"
	"bills/internal/log"
)

// SetupLogger creates the component logger from LOG_LEVEL and LOG_FORMAT
// and installs it as the slog default.
func SetupLogger(component string) *log.Logger {
	return log.Setup(component)
}

// LoadEnvFile loads .env (or ENV_FILE) for local development. A missing
// file is fine; a malformed one is logged.
func LoadEnvFile(logger *log.Logger) {
	if err := config.LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		logger.Warn("Ignoring env file", log.FieldError, err.Error())
	}
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled on SIGINT or SIGTERM; cleanup then
// runs with timeout as its deadline and done is closed once it returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context) error) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		if cleanup == nil {
			return
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if err := cleanup(shutdownCtx); err != nil {
			logger.LogError(shutdownCtx, "Shutdown failed", err, log.OpShutdown, nil)
			return
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
