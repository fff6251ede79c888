package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/filestore"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// DefaultFactory builds stores from a backend Config.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// Create implements Factory.
func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLiteType:
		return f.createSQLite(cfg)
	case FileType:
		return f.createFile(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *DefaultFactory) createSQLite(cfg Config) (*Result, error) {
	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	// AMQP is optional: without it transactions stay pending until the
	// export worker's periodic scan picks them up.
	var client *amqp.Client
	if cfg.AMQPURL != "" {
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("failed to initialize AMQP client, continuing without export notifications", applog.FieldError, err)
			client = nil
		} else {
			f.logger.Info("initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	ledger := services.NewLedgerService(repo, client)

	f.logger.Info("initialized sqlite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", client != nil)

	return &Result{
		Store:   ledger,
		Cleanup: ledger.Close,
	}, nil
}

func (f *DefaultFactory) createFile(cfg Config) (*Result, error) {
	store, err := filestore.New(cfg.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("initialize file store: %w", err)
	}

	f.logger.Info("initialized file backend", "data_dir", cfg.DataDirectory)

	return &Result{
		Store:   store,
		Cleanup: nil,
	}, nil
}
