package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Recurrence frequencies for transactions. None marks a single dated
	// event; any other value makes Date the anchor occurrence.
	FrequencyNone     Frequency = "none"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyAnnually Frequency = "annually"

	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	Frequency string

	Kind string

	// Transaction is a recorded income or expense, optionally recurring.
	Transaction struct {
		ID          string
		OwnerID     string
		Kind        Kind
		Amount      Money
		Category    string
		Date        Date
		Description string
		Recurrence  Frequency
		CreatedAt   time.Time
	}

	// CreditCard carries the billing-cycle parameters of a card. When a
	// month is shorter than ClosingDay or DueDay, the last day of that
	// month is used instead.
	CreditCard struct {
		ID         string
		OwnerID    string
		Name       string
		Limit      Money
		DueDay     int
		ClosingDay int
	}

	// CreditCardPurchase is a purchase split over one or more monthly
	// installments on a card's invoice.
	CreditCardPurchase struct {
		ID           string
		OwnerID      string
		CardID       string
		Date         Date
		Description  string
		Category     string
		Total        Money
		Installments int
	}

	// Loan is a fixed-installment debt. The end date is always derived
	// from the start date and the installment count, never stored.
	Loan struct {
		ID           string
		OwnerID      string
		Bank         string
		Description  string
		Installment  Money
		Installments int
		StartDate    Date
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrInvalidFrequency    = errors.New("invalid recurrence frequency")
	ErrInvalidDayOfMonth   = errors.New("day of month must be between 1 and 31")
	ErrInvalidInstallments = errors.New("installment count must be at least 1")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyCategory       = errors.New("empty category")
	ErrEmptyOwner          = errors.New("empty owner reference")
	ErrNotFound            = errors.New("record not found")
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyNone, FrequencyWeekly, FrequencyMonthly, FrequencyAnnually:
		return true
	}
	return false
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Recurrence.Valid() {
		return ErrInvalidFrequency
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyDescription
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDayOfMonth
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		return ErrInvalidDayOfMonth
	}
	if err := c.Limit.Validate(); err != nil {
		return err
	}
	return nil
}

func (p CreditCardPurchase) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(p.CardID) == "" {
		return errors.New("empty card reference")
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if err := p.Total.Validate(); err != nil {
		return err
	}
	if p.Installments < 1 {
		return ErrInvalidInstallments
	}
	return nil
}

func (l Loan) Validate() error {
	if strings.TrimSpace(l.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(l.Bank) == "" {
		return errors.New("empty bank name")
	}
	if err := l.Installment.Validate(); err != nil {
		return err
	}
	if l.Installments < 1 {
		return ErrInvalidInstallments
	}
	if err := l.StartDate.Validate(); err != nil {
		return err
	}
	return nil
}

// EndDate is the due date of the last installment: the start date advanced
// by Installments-1 months, day clamped to the target month's length.
func (l Loan) EndDate() Date {
	return l.StartDate.AddMonths(l.Installments - 1)
}
