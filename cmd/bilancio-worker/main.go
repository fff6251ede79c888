package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	"bilancio/internal/export/google"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
	"bilancio/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(applog.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	logger.Info("starting bilancio-worker")

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize sqlite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := google.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, sheetsClient, cfg.ExportBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Clear any backlog before waiting for messages.
	if err := exportWorker.ProcessPending(ctx); err != nil {
		logger.Error("startup pending scan failed", applog.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeTransactionExports(ctx, func(msg *amqp.TransactionExportMessage) error {
			return exportWorker.HandleExportMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		return exportWorker.RunPendingScan(ctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
