// Package backend selects and wires the persistence layer behind the API.
package backend

import (
	"context"

	"bilancio/internal/core"
)

// Store is the persistence contract the HTTP layer works against. Every
// read is scoped to a single owner; records from other owners are never
// visible through it.
type Store interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id string) error

	CreateCard(ctx context.Context, card core.CreditCard) (core.CreditCard, error)
	ListCards(ctx context.Context, ownerID string) ([]core.CreditCard, error)
	GetCard(ctx context.Context, ownerID, id string) (core.CreditCard, error)
	DeleteCard(ctx context.Context, ownerID, id string) error

	CreatePurchase(ctx context.Context, p core.CreditCardPurchase) (core.CreditCardPurchase, error)
	ListPurchases(ctx context.Context, ownerID string) ([]core.CreditCardPurchase, error)
	DeletePurchase(ctx context.Context, ownerID, id string) error

	CreateLoan(ctx context.Context, loan core.Loan) (core.Loan, error)
	ListLoans(ctx context.Context, ownerID string) ([]core.Loan, error)
	DeleteLoan(ctx context.Context, ownerID, id string) error

	// ListCategories returns the distinct categories the owner has used,
	// sorted alphabetically.
	ListCategories(ctx context.Context, ownerID string) ([]string, error)
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result bundles a ready Store with its cleanup.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Factory creates stores from configuration.
type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}

// Config holds everything needed to construct a store.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// File backend specific
	DataDirectory string
}

// Type identifies a persistence backend.
type Type string

const (
	SQLiteType Type = "sqlite"
	FileType   Type = "file"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the type names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteType, FileType:
		return true
	default:
		return false
	}
}
