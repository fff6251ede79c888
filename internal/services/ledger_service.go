// Package services coordinates persistence with the export pipeline.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

// LedgerService fronts the SQLite repository and notifies the export
// worker when new transactions land. Every other store operation passes
// through the embedded repository unchanged.
type LedgerService struct {
	*storage.Repository
	amqpClient *amqp.Client
}

func NewLedgerService(repo *storage.Repository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		Repository: repo,
		amqpClient: amqpClient,
	}
}

// CreateTransaction saves the transaction and publishes an export
// notification. A publish failure never fails the request: the record is
// marked pending and the worker's periodic scan picks it up.
func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := s.Repository.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if s.amqpClient == nil {
		return created, nil
	}
	if err := s.amqpClient.PublishTransactionExport(ctx, created.ID, created.OwnerID); err != nil {
		slog.ErrorContext(ctx, "failed to publish export message",
			applog.FieldRecordID, created.ID, applog.FieldError, err)
	}

	return created, nil
}

// Close closes both the repository and the AMQP connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.Repository != nil {
		if err := s.Repository.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
