package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting fintrack-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The spreadsheet export needs credentials and a target. Without them
	// the worker still materializes recurring transactions.
	var exporter *worker.ExportWorker
	if cfg.ExportSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			ExportSpreadsheetID: cfg.ExportSpreadsheetID,
			ExportSheet:         cfg.ExportSheetName,
			BaseCurrency:        cfg.BaseCurrency,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = worker.NewExportWorker(repo, client, cfg.ExportBatchSize)
		logger.Info("Spreadsheet export enabled",
			"spreadsheet_id", cfg.ExportSpreadsheetID,
			"sheet", cfg.ExportSheetName,
			"batch_size", cfg.ExportBatchSize)
	} else {
		logger.Info("Spreadsheet export disabled - no EXPORT_SPREADSHEET_ID provided")
	}

	var amqpClient *amqp.Client
	if exporter != nil && cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, export falls back to periodic sweeps", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP consumer initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	// Recurring transactions go through the same service the API uses, so
	// their change notifications reach the exporter like any other write.
	txService := services.NewTransactionService(repo, amqpClient)
	recurringService := services.NewRecurringService(repo, txService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if exporter != nil {
		logger.Info("Performing startup export check...")
		if n, err := exporter.ProcessPending(ctx); err != nil {
			logger.Error("Startup export check failed", "error", err)
		} else if n > 0 {
			logger.Info("Startup export check complete", "exported", n)
		}
	}

	logger.Info("Running initial recurring materialization...")
	if n, err := recurringService.MaterializeDue(ctx, time.Now()); err != nil {
		logger.Error("Initial recurring materialization failed", "error", err)
	} else {
		logger.Info("Initial recurring materialization complete", "created", n)
	}

	sup := worker.NewSupervisor(worker.SupervisorOpts{
		Exporter:          exporter,
		Recurring:         recurringService,
		Consumer:          amqpClient,
		RecurringInterval: cfg.RecurringInterval,
	})

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Shutting down fintrack-worker...")
	cancel()

	select {
	case <-done:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
