// Package storage implements the SQLite-backed persistence layer.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

// Sync states for exported transactions.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, kind, amount_cents, category, date, description, recurrence, created_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, string(tx.Kind), tx.Amount.Cents, tx.Category,
		tx.Date.String(), tx.Description, string(tx.Recurrence),
		tx.CreatedAt.Format(time.RFC3339), SyncPending)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	return tx, nil
}

func (r *Repository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, kind, amount_cents, category, date, description, recurrence, created_at
		FROM transactions
		WHERE owner_id = ?
		ORDER BY date, created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, kind, amount_cents, category, date, description, recurrence, created_at
		FROM transactions
		WHERE owner_id = ? AND id = ?`, ownerID, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return tx, err
}

func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return r.deleteByID(ctx, "transactions", ownerID, id)
}

func (r *Repository) CreateCard(ctx context.Context, card core.CreditCard) (core.CreditCard, error) {
	card.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credit_cards (id, owner_id, name, limit_cents, due_day, closing_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		card.ID, card.OwnerID, card.Name, card.Limit.Cents, card.DueDay, card.ClosingDay,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("insert credit card: %w", err)
	}

	return card, nil
}

func (r *Repository) ListCards(ctx context.Context, ownerID string) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, name, limit_cents, due_day, closing_day
		FROM credit_cards
		WHERE owner_id = ?
		ORDER BY name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCard
	for rows.Next() {
		var card core.CreditCard
		if err := rows.Scan(&card.ID, &card.OwnerID, &card.Name, &card.Limit.Cents, &card.DueDay, &card.ClosingDay); err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

func (r *Repository) GetCard(ctx context.Context, ownerID, id string) (core.CreditCard, error) {
	var card core.CreditCard
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, limit_cents, due_day, closing_day
		FROM credit_cards
		WHERE owner_id = ? AND id = ?`, ownerID, id).
		Scan(&card.ID, &card.OwnerID, &card.Name, &card.Limit.Cents, &card.DueDay, &card.ClosingDay)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CreditCard{}, fmt.Errorf("credit card %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("get credit card: %w", err)
	}
	return card, nil
}

func (r *Repository) DeleteCard(ctx context.Context, ownerID, id string) error {
	return r.deleteByID(ctx, "credit_cards", ownerID, id)
}

func (r *Repository) CreatePurchase(ctx context.Context, p core.CreditCardPurchase) (core.CreditCardPurchase, error) {
	p.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credit_card_purchases (id, owner_id, card_id, date, description, category, total_cents, installments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.CardID, p.Date.String(), p.Description, p.Category,
		p.Total.Cents, p.Installments, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return core.CreditCardPurchase{}, fmt.Errorf("insert purchase: %w", err)
	}

	return p, nil
}

func (r *Repository) ListPurchases(ctx context.Context, ownerID string) ([]core.CreditCardPurchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, card_id, date, description, category, total_cents, installments
		FROM credit_card_purchases
		WHERE owner_id = ?
		ORDER BY date, created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCardPurchase
	for rows.Next() {
		var p core.CreditCardPurchase
		var date string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.CardID, &date, &p.Description, &p.Category, &p.Total.Cents, &p.Installments); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		p.Date, err = core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse purchase date: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) DeletePurchase(ctx context.Context, ownerID, id string) error {
	return r.deleteByID(ctx, "credit_card_purchases", ownerID, id)
}

func (r *Repository) CreateLoan(ctx context.Context, loan core.Loan) (core.Loan, error) {
	loan.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO loans (id, owner_id, bank, description, installment_cents, installments, start_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID, loan.OwnerID, loan.Bank, loan.Description, loan.Installment.Cents,
		loan.Installments, loan.StartDate.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return core.Loan{}, fmt.Errorf("insert loan: %w", err)
	}

	return loan, nil
}

func (r *Repository) ListLoans(ctx context.Context, ownerID string) ([]core.Loan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, bank, description, installment_cents, installments, start_date
		FROM loans
		WHERE owner_id = ?
		ORDER BY start_date, created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var out []core.Loan
	for rows.Next() {
		var loan core.Loan
		var start string
		if err := rows.Scan(&loan.ID, &loan.OwnerID, &loan.Bank, &loan.Description, &loan.Installment.Cents, &loan.Installments, &start); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loan.StartDate, err = core.ParseDate(start)
		if err != nil {
			return nil, fmt.Errorf("parse loan start date: %w", err)
		}
		out = append(out, loan)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteLoan(ctx context.Context, ownerID, id string) error {
	return r.deleteByID(ctx, "loans", ownerID, id)
}

func (r *Repository) ListCategories(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category FROM transactions WHERE owner_id = ?
		UNION
		SELECT category FROM credit_card_purchases WHERE owner_id = ?
		ORDER BY 1`, ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListPendingTransactions returns up to limit transactions that have not
// been exported yet, oldest first.
func (r *Repository) ListPendingTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, kind, amount_cents, category, date, description, recurrence, created_at
		FROM transactions
		WHERE sync_status = ?
		ORDER BY created_at
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// TransactionSyncStatus returns the export status for a transaction.
func (r *Repository) TransactionSyncStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		"SELECT sync_status FROM transactions WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return status, nil
}

// MarkTransactionSynced records that the transaction reached the export
// destination, storing the destination reference.
func (r *Repository) MarkTransactionSynced(ctx context.Context, id, sheetsRef string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = ?, sheets_ref = ? WHERE id = ?`,
		SyncSynced, sheetsRef, id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) deleteByID(ctx context.Context, table, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE owner_id = ? AND id = ?", table), ownerID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, core.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx               core.Transaction
		kind, recurrence string
		date, createdAt  string
	)
	if err := row.Scan(&tx.ID, &tx.OwnerID, &kind, &tx.Amount.Cents, &tx.Category,
		&date, &tx.Description, &recurrence, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Kind = core.Kind(kind)
	tx.Recurrence = core.Frequency(recurrence)

	var err error
	tx.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	tx.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}

	return tx, nil
}
