// Package worker moves pending transactions from SQLite to the export
// destination. It reacts to AMQP messages and, as a backup for lost
// messages, periodically scans for pending records.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

// TransactionAppender writes one transaction to the export destination
// and returns a reference to where it landed.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) (string, error)
}

// ExportStore is the slice of the repository the worker needs.
type ExportStore interface {
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
	TransactionSyncStatus(ctx context.Context, id string) (string, error)
	ListPendingTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkTransactionSynced(ctx context.Context, id, ref string) error
}

type ExportWorker struct {
	store     ExportStore
	appender  TransactionAppender
	batchSize int
}

func NewExportWorker(store ExportStore, appender TransactionAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from AMQP.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	status, err := w.store.TransactionSyncStatus(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the message was processed; nothing to export.
		slog.WarnContext(ctx, "transaction gone before export", applog.FieldRecordID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("check sync status: %w", err)
	}
	if status == storage.SyncSynced {
		// Duplicate delivery.
		return nil
	}

	tx, err := w.store.GetTransaction(ctx, msg.OwnerID, msg.ID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	return w.export(ctx, tx)
}

// ProcessPending exports up to one batch of transactions that are still
// pending, oldest first.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "processing pending transactions", "count", len(pending))

	for _, tx := range pending {
		if err := w.export(ctx, tx); err != nil {
			// Keep going; the failed record stays pending for the next scan.
			slog.ErrorContext(ctx, "failed to export pending transaction",
				applog.FieldRecordID, tx.ID, applog.FieldError, err)
		}
	}
	return nil
}

// RunPendingScan runs ProcessPending on a fixed interval until ctx is done.
func (w *ExportWorker) RunPendingScan(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "pending scan failed", applog.FieldError, err)
			}
		}
	}
}

func (w *ExportWorker) export(ctx context.Context, tx core.Transaction) error {
	ref, err := w.appender.AppendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}

	if err := w.store.MarkTransactionSynced(ctx, tx.ID, ref); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "transaction exported",
		applog.FieldRecordID, tx.ID,
		applog.FieldSheetsRef, ref)
	return nil
}
