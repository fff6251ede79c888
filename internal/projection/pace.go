package projection

import (
	"fmt"

	"bilancio/internal/core"
)

const (
	AlertWarning AlertLevel = "warning"
	AlertInfo    AlertLevel = "info"

	// Spend above 130% of the previous period raises a warning, below 70%
	// an info note. Anything in between stays quiet.
	paceWarningRatio = 1.3
	paceInfoRatio    = 0.7
)

type (
	AlertLevel string

	// PaceAlert flags accelerating or decelerating spend compared with the
	// same day range of the previous month.
	PaceAlert struct {
		Level         AlertLevel `json:"level"`
		CurrentCents  int64      `json:"currentCents"`
		PreviousCents int64      `json:"previousCents"`
	}

	// PaceInput is the snapshot the comparator evaluates.
	PaceInput struct {
		Transactions []core.Transaction
		Cards        []core.CreditCard
		Purchases    []core.CreditCardPurchase
		Today        core.Date
	}
)

// ComparePace compares expenses from the 1st of the current month through
// today against the same day range of the previous month (clamped when that
// month is shorter). The ranges cover one-off expense transactions plus card
// installments whose billing cycle is the period's month and whose purchase
// day falls inside the range. Nil means no alert: the comparator stays
// silent on the first of the month and when the previous period had no
// spending.
func ComparePace(in PaceInput) (*PaceAlert, error) {
	if in.Today.IsZero() {
		return nil, fmt.Errorf("compare pace: today: %w", core.ErrInvalidDate)
	}
	if in.Today.Day() == 1 {
		return nil, nil
	}
	if err := checkSingleOwner(in.Transactions, in.Cards, in.Purchases, nil); err != nil {
		return nil, err
	}

	year, month := in.Today.Year(), in.Today.Month()
	endDay := in.Today.Day()
	current, err := periodSpend(in, year, month, endDay)
	if err != nil {
		return nil, err
	}

	prevYear, prevMonth := core.PrevMonth(year, month)
	previous, err := periodSpend(in, prevYear, prevMonth, core.ClampDay(prevYear, prevMonth, endDay))
	if err != nil {
		return nil, err
	}

	if previous == 0 {
		return nil, nil
	}
	switch {
	case float64(current) > paceWarningRatio*float64(previous):
		return &PaceAlert{Level: AlertWarning, CurrentCents: current, PreviousCents: previous}, nil
	case current > 0 && float64(current) < paceInfoRatio*float64(previous):
		return &PaceAlert{Level: AlertInfo, CurrentCents: current, PreviousCents: previous}, nil
	}
	return nil, nil
}

func periodSpend(in PaceInput, year, month, endDay int) (int64, error) {
	start := core.MonthStart(year, month)
	end := core.NewDate(year, month, endDay)

	var total int64
	for _, tx := range in.Transactions {
		if err := tx.Date.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		if tx.Kind != core.KindExpense || tx.Recurrence != core.FrequencyNone {
			continue
		}
		if !tx.Date.Before(start) && !tx.Date.After(end) {
			total += tx.Amount.Cents
		}
	}

	for _, card := range in.Cards {
		for _, p := range in.Purchases {
			if p.CardID != card.ID {
				continue
			}
			if p.Date.Day() > endDay {
				continue
			}
			share := InstallmentAmount(p)
			for i := 0; i < p.Installments; i++ {
				m, y, err := InstallmentCycle(card, p, i)
				if err != nil {
					return 0, err
				}
				if m == month && y == year {
					total += share.Cents
				}
			}
		}
	}
	return total, nil
}
