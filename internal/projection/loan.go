package projection

import (
	"fmt"

	"bilancio/internal/core"
)

// LoanDueDate is the due date of installment i (0-indexed): the loan's start
// date advanced by i months, day clamped to each target month's length. Like
// recurring transactions, the date is derived from the start date directly,
// so a Jan 31 loan pays on Feb 28 and is back on Mar 31.
func LoanDueDate(loan core.Loan, i int) core.Date {
	return loan.StartDate.AddMonths(i)
}

// LoanInstallmentInMonth reports what the loan charges in the given month.
// By construction at most one installment lands in a month, but the schedule
// is checked index by index and coincident installments are summed rather
// than assumed away. The second return is false when the month is outside
// the loan's schedule.
func LoanInstallmentInMonth(loan core.Loan, month, year int) (core.Money, bool, error) {
	if month < 1 || month > 12 {
		return core.Money{}, false, fmt.Errorf("loan %s: %w: %d", loan.ID, core.ErrInvalidMonth, month)
	}
	if loan.Installments < 1 {
		return core.Money{}, false, fmt.Errorf("loan %s: %w", loan.ID, core.ErrInvalidInstallments)
	}
	if err := loan.StartDate.Validate(); err != nil {
		return core.Money{}, false, fmt.Errorf("loan %s: %w", loan.ID, err)
	}

	var total core.Money
	found := false
	for i := 0; i < loan.Installments; i++ {
		due := LoanDueDate(loan, i)
		if due.Month() == month && due.Year() == year {
			total = total.Add(loan.Installment)
			found = true
		}
	}
	return total, found, nil
}
