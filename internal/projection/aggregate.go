package projection

import (
	"fmt"
	"sort"

	"bilancio/internal/core"
)

const (
	ScheduledTransaction ScheduledKind = "transaction"
	ScheduledInvoice     ScheduledKind = "invoice"
	ScheduledLoan        ScheduledKind = "loan"
)

type (
	// ScheduledKind identifies the record a scheduled line item derives from.
	ScheduledKind string

	// ProjectionInput is the consistent per-owner snapshot a month summary
	// is computed from. Today is only used for IsPast tagging.
	ProjectionInput struct {
		Transactions []core.Transaction
		Cards        []core.CreditCard
		Purchases    []core.CreditCardPurchase
		Loans        []core.Loan
		Month        int
		Year         int
		Today        core.Date
	}

	// ScheduledItem is one projected money movement inside the target month.
	// Constructed fresh on every call, never persisted.
	ScheduledItem struct {
		SourceID    string        `json:"sourceId"`
		SourceKind  ScheduledKind `json:"sourceKind"`
		Description string        `json:"description"`
		Category    string        `json:"category,omitempty"`
		Date        core.Date     `json:"date"`
		AmountCents int64         `json:"amountCents"`
		Kind        core.Kind     `json:"kind"`
		IsPast      bool          `json:"isPast"`
	}

	// CategoryChange compares one category's direct expenses against the
	// previous month. IsNew marks a category with no previous spending;
	// its ChangePct is meaningless and left at zero.
	CategoryChange struct {
		Category      string  `json:"category"`
		CurrentCents  int64   `json:"currentCents"`
		PreviousCents int64   `json:"previousCents"`
		ChangePct     float64 `json:"changePct"`
		IsNew         bool    `json:"isNew"`
	}

	// MonthSummary is the projection of a calendar month: totals, the
	// scheduled line items, and the category comparison.
	MonthSummary struct {
		Year             int              `json:"year"`
		Month            int              `json:"month"`
		IncomeCents      int64            `json:"incomeCents"`
		DirectCents      int64            `json:"directExpenseCents"`
		CardCents        int64            `json:"cardExpenseCents"`
		LoanCents        int64            `json:"loanExpenseCents"`
		TotalExpenseCents int64           `json:"totalExpenseCents"`
		Scheduled        []ScheduledItem  `json:"scheduled"`
		Categories       []CategoryChange `json:"categories"`
	}
)

// ProjectMonth aggregates one owner's records into the summary of a target
// month. Card invoices count toward the month their billing cycle closes in;
// the same semantic feeds both the headline expense total and the
// card-spending figure. Records belonging to more than one owner are
// rejected outright.
func ProjectMonth(in ProjectionInput) (MonthSummary, error) {
	if in.Month < 1 || in.Month > 12 {
		return MonthSummary{}, fmt.Errorf("project month: %w: %d", core.ErrInvalidMonth, in.Month)
	}
	if in.Today.IsZero() {
		return MonthSummary{}, fmt.Errorf("project month: today: %w", core.ErrInvalidDate)
	}
	if err := checkSingleOwner(in.Transactions, in.Cards, in.Purchases, in.Loans); err != nil {
		return MonthSummary{}, err
	}

	summary := MonthSummary{Year: in.Year, Month: in.Month}
	start := core.MonthStart(in.Year, in.Month)
	end := core.MonthEnd(in.Year, in.Month)

	currentByCategory := map[string]int64{}

	for _, tx := range in.Transactions {
		dates, err := Occurrences(tx, start, end)
		if err != nil {
			return MonthSummary{}, err
		}
		for _, d := range dates {
			switch tx.Kind {
			case core.KindIncome:
				summary.IncomeCents += tx.Amount.Cents
			case core.KindExpense:
				summary.DirectCents += tx.Amount.Cents
				currentByCategory[tx.Category] += tx.Amount.Cents
			default:
				return MonthSummary{}, fmt.Errorf("transaction %s: %w: %q", tx.ID, core.ErrInvalidKind, tx.Kind)
			}
			if tx.Recurrence != core.FrequencyNone {
				summary.Scheduled = append(summary.Scheduled, ScheduledItem{
					SourceID:    tx.ID,
					SourceKind:  ScheduledTransaction,
					Description: tx.Description,
					Category:    tx.Category,
					Date:        d,
					AmountCents: tx.Amount.Cents,
					Kind:        tx.Kind,
					IsPast:      d.Before(in.Today),
				})
			}
		}
	}

	for _, card := range in.Cards {
		invoice, err := InvoiceTotal(card, in.Purchases, in.Month, in.Year)
		if err != nil {
			return MonthSummary{}, err
		}
		if invoice.Cents == 0 {
			continue
		}
		summary.CardCents += invoice.Cents
		due := InvoiceDueDate(card, in.Month, in.Year)
		summary.Scheduled = append(summary.Scheduled, ScheduledItem{
			SourceID:    card.ID,
			SourceKind:  ScheduledInvoice,
			Description: card.Name,
			Date:        due,
			AmountCents: invoice.Cents,
			Kind:        core.KindExpense,
			IsPast:      due.Before(in.Today),
		})
	}

	for _, loan := range in.Loans {
		if loan.Installments < 1 {
			return MonthSummary{}, fmt.Errorf("loan %s: %w", loan.ID, core.ErrInvalidInstallments)
		}
		if err := loan.StartDate.Validate(); err != nil {
			return MonthSummary{}, fmt.Errorf("loan %s: %w", loan.ID, err)
		}
		for i := 0; i < loan.Installments; i++ {
			due := LoanDueDate(loan, i)
			if due.Month() != in.Month || due.Year() != in.Year {
				continue
			}
			summary.LoanCents += loan.Installment.Cents
			summary.Scheduled = append(summary.Scheduled, ScheduledItem{
				SourceID:    loan.ID,
				SourceKind:  ScheduledLoan,
				Description: loan.Description,
				Date:        due,
				AmountCents: loan.Installment.Cents,
				Kind:        core.KindExpense,
				IsPast:      due.Before(in.Today),
			})
		}
	}

	summary.TotalExpenseCents = summary.DirectCents + summary.CardCents + summary.LoanCents

	sort.SliceStable(summary.Scheduled, func(i, j int) bool {
		a, b := summary.Scheduled[i], summary.Scheduled[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.SourceKind != b.SourceKind {
			return a.SourceKind < b.SourceKind
		}
		return a.Description < b.Description
	})

	categories, err := categoryChanges(in, currentByCategory)
	if err != nil {
		return MonthSummary{}, err
	}
	summary.Categories = categories

	return summary, nil
}

// categoryChanges recomputes the direct-expense occurrence totals for the
// month before the target and compares category by category. A category with
// no previous total is flagged new instead of reporting a percentage.
func categoryChanges(in ProjectionInput, current map[string]int64) ([]CategoryChange, error) {
	prevYear, prevMonth := core.PrevMonth(in.Year, in.Month)
	start := core.MonthStart(prevYear, prevMonth)
	end := core.MonthEnd(prevYear, prevMonth)

	previous := map[string]int64{}
	for _, tx := range in.Transactions {
		if tx.Kind != core.KindExpense {
			continue
		}
		dates, err := Occurrences(tx, start, end)
		if err != nil {
			return nil, err
		}
		previous[tx.Category] += tx.Amount.Cents * int64(len(dates))
	}

	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	for name := range previous {
		if _, ok := current[name]; !ok && previous[name] > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]CategoryChange, 0, len(names))
	for _, name := range names {
		curr, prev := current[name], previous[name]
		if curr == 0 && prev == 0 {
			continue
		}
		change := CategoryChange{Category: name, CurrentCents: curr, PreviousCents: prev}
		switch {
		case prev > 0:
			change.ChangePct = float64(curr-prev) / float64(prev) * 100
		case curr > 0:
			change.IsNew = true
		}
		out = append(out, change)
	}
	return out, nil
}

func checkSingleOwner(txs []core.Transaction, cards []core.CreditCard, purchases []core.CreditCardPurchase, loans []core.Loan) error {
	owner := ""
	check := func(id string) error {
		if id == "" {
			return core.ErrEmptyOwner
		}
		if owner == "" {
			owner = id
			return nil
		}
		if id != owner {
			return fmt.Errorf("records mix owners %q and %q", owner, id)
		}
		return nil
	}
	for _, t := range txs {
		if err := check(t.OwnerID); err != nil {
			return err
		}
	}
	for _, c := range cards {
		if err := check(c.OwnerID); err != nil {
			return err
		}
	}
	for _, p := range purchases {
		if err := check(p.OwnerID); err != nil {
			return err
		}
	}
	for _, l := range loans {
		if err := check(l.OwnerID); err != nil {
			return err
		}
	}
	return nil
}
