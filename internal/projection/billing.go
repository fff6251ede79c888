package projection

import (
	"fmt"

	"bilancio/internal/core"
)

// InstallmentCycle returns the month and year of the billing cycle that
// installment i (0-indexed) of a purchase belongs to. A purchase made after
// the card's closing day rolls into the next month's cycle; a purchase on
// the closing day itself still makes the current one. Subsequent
// installments land exactly one cycle apart.
func InstallmentCycle(card core.CreditCard, p core.CreditCardPurchase, i int) (month, year int, err error) {
	if p.Installments < 1 {
		return 0, 0, fmt.Errorf("purchase %s: %w", p.ID, core.ErrInvalidInstallments)
	}
	if i < 0 || i >= p.Installments {
		return 0, 0, fmt.Errorf("purchase %s: installment index %d out of range", p.ID, i)
	}
	if err := p.Date.Validate(); err != nil {
		return 0, 0, fmt.Errorf("purchase %s: %w", p.ID, err)
	}

	month, year = p.Date.Month(), p.Date.Year()
	closing := core.ClampDay(year, month, card.ClosingDay)
	if p.Date.Day() > closing {
		month++
	}
	month += i
	year += (month - 1) / 12
	month = (month-1)%12 + 1
	return month, year, nil
}

// InstallmentAmount is the per-installment share of a purchase: the total
// divided by the installment count, rounded to the cent. The remainder is
// not pushed onto the last installment, so the shares of an uneven split
// may miss the total by a cent.
func InstallmentAmount(p core.CreditCardPurchase) core.Money {
	return p.Total.DivideRound(p.Installments)
}

// InvoiceTotal sums every installment of every purchase on the card whose
// billing cycle is the given month. A card with nothing cycling into the
// month totals zero.
func InvoiceTotal(card core.CreditCard, purchases []core.CreditCardPurchase, month, year int) (core.Money, error) {
	if month < 1 || month > 12 {
		return core.Money{}, fmt.Errorf("invoice total: %w: %d", core.ErrInvalidMonth, month)
	}
	var total core.Money
	for _, p := range purchases {
		if p.CardID != card.ID {
			continue
		}
		share := InstallmentAmount(p)
		for i := 0; i < p.Installments; i++ {
			m, y, err := InstallmentCycle(card, p, i)
			if err != nil {
				return core.Money{}, err
			}
			if m == month && y == year {
				total = total.Add(share)
			}
		}
	}
	return total, nil
}

// InvoiceDueDate is the day the invoice labeled with the given month becomes
// payable: the card's due day clamped to that month's length.
func InvoiceDueDate(card core.CreditCard, month, year int) core.Date {
	return core.NewDate(year, month, core.ClampDay(year, month, card.DueDay))
}
