// Package filestore persists records as per-owner JSON documents on disk.
// It exists for single-user setups that do not want a database file.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

type ownerDocument struct {
	Transactions []core.Transaction        `json:"transactions"`
	Cards        []core.CreditCard         `json:"cards"`
	Purchases    []core.CreditCardPurchase `json:"purchases"`
	Loans        []core.Loan               `json:"loans"`
}

type Store struct {
	mu   sync.Mutex
	base string
}

func New(base string) (*Store, error) {
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{base: base}, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()

	err := s.update(tx.OwnerID, func(doc *ownerDocument) error {
		doc.Transactions = append(doc.Transactions, tx)
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	doc, err := s.read(ownerID)
	if err != nil {
		return nil, err
	}
	out := append([]core.Transaction(nil), doc.Transactions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	doc, err := s.read(ownerID)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, tx := range doc.Transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	return s.update(ownerID, func(doc *ownerDocument) error {
		for i, tx := range doc.Transactions {
			if tx.ID == id {
				doc.Transactions = append(doc.Transactions[:i], doc.Transactions[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	})
}

func (s *Store) CreateCard(_ context.Context, card core.CreditCard) (core.CreditCard, error) {
	card.ID = uuid.NewString()

	err := s.update(card.OwnerID, func(doc *ownerDocument) error {
		doc.Cards = append(doc.Cards, card)
		return nil
	})
	if err != nil {
		return core.CreditCard{}, err
	}
	return card, nil
}

func (s *Store) ListCards(_ context.Context, ownerID string) ([]core.CreditCard, error) {
	doc, err := s.read(ownerID)
	if err != nil {
		return nil, err
	}
	out := append([]core.CreditCard(nil), doc.Cards...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCard(_ context.Context, ownerID, id string) (core.CreditCard, error) {
	doc, err := s.read(ownerID)
	if err != nil {
		return core.CreditCard{}, err
	}
	for _, card := range doc.Cards {
		if card.ID == id {
			return card, nil
		}
	}
	return core.CreditCard{}, fmt.Errorf("credit card %s: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteCard(_ context.Context, ownerID, id string) error {
	return s.update(ownerID, func(doc *ownerDocument) error {
		for i, card := range doc.Cards {
			if card.ID == id {
				doc.Cards = append(doc.Cards[:i], doc.Cards[i+1:]...)
				// Purchases on the card go with it.
				kept := doc.Purchases[:0]
				for _, p := range doc.Purchases {
					if p.CardID != id {
						kept = append(kept, p)
					}
				}
				doc.Purchases = kept
				return nil
			}
		}
		return fmt.Errorf("credit card %s: %w", id, core.ErrNotFound)
	})
}

func (s *Store) CreatePurchase(_ context.Context, p core.CreditCardPurchase) (core.CreditCardPurchase, error) {
	p.ID = uuid.NewString()

	err := s.update(p.OwnerID, func(doc *ownerDocument) error {
		for _, card := range doc.Cards {
			if card.ID == p.CardID {
				doc.Purchases = append(doc.Purchases, p)
				return nil
			}
		}
		return fmt.Errorf("credit card %s: %w", p.CardID, core.ErrNotFound)
	})
	if err != nil {
		return core.CreditCardPurchase{}, err
	}
	return p, nil
}

func (s *Store) ListPurchases(_ context.Context, ownerID string) ([]core.CreditCardPurchase, error) {
	doc, err := s.read(ownerID)
	if err != nil {
		return nil, err
	}
	out := append([]core.CreditCardPurchase(nil), doc.Purchases...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) DeletePurchase(_ context.Context, ownerID, id string) error {
	return s.update(ownerID, func(doc *ownerDocument) error {
		for i, p := range doc.Purchases {
			if p.ID == id {
				doc.Purchases = append(doc.Purchases[:i], doc.Purchases[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("purchase %s: %w", id, core.ErrNotFound)
	})
}

func (s *Store) CreateLoan(_ context.Context, loan core.Loan) (core.Loan, error) {
	loan.ID = uuid.NewString()

	err := s.update(loan.OwnerID, func(doc *ownerDocument) error {
		doc.Loans = append(doc.Loans, loan)
		return nil
	})
	if err != nil {
		return core.Loan{}, err
	}
	return loan, nil
}

func (s *Store) ListLoans(_ context.Context, ownerID string) ([]core.Loan, error) {
	doc, err := s.read(ownerID)
	if err != nil {
		return nil, err
	}
	out := append([]core.Loan(nil), doc.Loans...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) DeleteLoan(_ context.Context, ownerID, id string) error {
	return s.update(ownerID, func(doc *ownerDocument) error {
		for i, loan := range doc.Loans {
			if loan.ID == id {
				doc.Loans = append(doc.Loans[:i], doc.Loans[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("loan %s: %w", id, core.ErrNotFound)
	})
}

func (s *Store) ListCategories(_ context.Context, ownerID string) ([]string, error) {
	doc, err := s.read(ownerID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var out []string
	add := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, tx := range doc.Transactions {
		add(tx.Category)
	}
	for _, p := range doc.Purchases {
		add(p.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) path(ownerID string) string {
	// Owner IDs come from a request header, so keep them out of path syntax.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, ownerID)
	return filepath.Join(s.base, safe+".json")
}

func (s *Store) read(ownerID string) (*ownerDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(ownerID)
}

func (s *Store) readLocked(ownerID string) (*ownerDocument, error) {
	var doc ownerDocument
	data, err := os.ReadFile(s.path(ownerID))
	if os.IsNotExist(err) {
		return &doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read owner document: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode owner document: %w", err)
	}
	return &doc, nil
}

func (s *Store) update(ownerID string, fn func(*ownerDocument) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readLocked(ownerID)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode owner document: %w", err)
	}

	// Write-then-rename so an interrupted write cannot corrupt the document.
	tmp := s.path(ownerID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write owner document: %w", err)
	}
	if err := os.Rename(tmp, s.path(ownerID)); err != nil {
		return fmt.Errorf("replace owner document: %w", err)
	}
	return nil
}
