package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bills/internal/amqp"
	"bills/internal/cli"
	"bills/internal/config"
	"bills/internal/log"
	"bills/internal/services"
	"bills/internal/sheets/google"
	"bills/internal/storage"
	"bills/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	logger := cli.SetupLogger(log.ComponentWorker)
	cli.LoadEnvFile(logger)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting bills-worker")

	if cfg.DataBackend != config.BackendSQLite {
		logger.Error("bills-worker reads the shared SQLite database; set DATA_BACKEND=sqlite",
			"backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("bills-worker needs AMQP_URL")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		_ = repo.Close()
		os.Exit(1)
	}

	// exporter stays a nil interface when Sheets is off.
	var exporter worker.Exporter
	if cfg.SheetsEnabled() {
		ex, err := google.NewFromConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err.Error())
			_ = client.Close()
			_ = repo.Close()
			os.Exit(1)
		}
		if err := ex.EnsureHeader(context.Background()); err != nil {
			logger.Warn("Could not write sheet header", log.FieldError, err.Error())
		}
		exporter = ex
		logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	syncWorker := worker.NewSyncWorker(repo, exporter)
	reminders := services.NewReminderProcessor(repo, client, services.ReminderConfig{
		Interval: cfg.ReminderInterval,
		Window:   cfg.ReminderWindow,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) error {
		return errors.Join(reminders.Stop(ctx), client.Close(), repo.Close())
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, syncWorker.HandleMessage)
	})
	g.Go(func() error {
		if err := reminders.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return gctx.Err()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.LogError(ctx, "Worker stopped", err, log.OpShutdown, nil)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
