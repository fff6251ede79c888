package projection

import (
	"fmt"

	"bilancio/internal/core"
)

// BalanceInput is the snapshot the current balance is computed from. Today
// determines both the cutoff for recorded transactions and the "current
// month" whose committed outflows are anticipated.
type BalanceInput struct {
	Transactions []core.Transaction
	Cards        []core.CreditCard
	Purchases    []core.CreditCardPurchase
	Loans        []core.Loan
	Today        core.Date
}

// CurrentBalance is the semi-accrual running balance: every one-off
// transaction recorded up to today (income minus expense), reduced by the
// outflows already committed for the real current month even when they have
// not been recorded yet: recurring expense occurrences, card invoices
// closing this month, and loan installments due this month. The product
// deliberately favors this accrual-leaning figure over pure cash basis.
func CurrentBalance(in BalanceInput) (int64, error) {
	if in.Today.IsZero() {
		return 0, fmt.Errorf("current balance: today: %w", core.ErrInvalidDate)
	}
	if err := checkSingleOwner(in.Transactions, in.Cards, in.Purchases, in.Loans); err != nil {
		return 0, err
	}

	var balance int64
	for _, tx := range in.Transactions {
		if err := tx.Date.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		if tx.Recurrence != core.FrequencyNone {
			continue
		}
		if tx.Date.After(in.Today) {
			continue
		}
		switch tx.Kind {
		case core.KindIncome:
			balance += tx.Amount.Cents
		case core.KindExpense:
			balance -= tx.Amount.Cents
		default:
			return 0, fmt.Errorf("transaction %s: %w: %q", tx.ID, core.ErrInvalidKind, tx.Kind)
		}
	}

	year, month := in.Today.Year(), in.Today.Month()
	start := core.MonthStart(year, month)
	end := core.MonthEnd(year, month)

	for _, tx := range in.Transactions {
		if tx.Recurrence == core.FrequencyNone || tx.Kind != core.KindExpense {
			continue
		}
		dates, err := Occurrences(tx, start, end)
		if err != nil {
			return 0, err
		}
		balance -= tx.Amount.Cents * int64(len(dates))
	}

	for _, card := range in.Cards {
		invoice, err := InvoiceTotal(card, in.Purchases, month, year)
		if err != nil {
			return 0, err
		}
		balance -= invoice.Cents
	}

	for _, loan := range in.Loans {
		due, ok, err := LoanInstallmentInMonth(loan, month, year)
		if err != nil {
			return 0, err
		}
		if ok {
			balance -= due.Cents
		}
	}

	return balance, nil
}
