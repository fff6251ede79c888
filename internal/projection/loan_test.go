package projection

import (
	"testing"

	"bilancio/internal/core"
)

func testLoan(start core.Date, installments int, amountCents int64) core.Loan {
	return core.Loan{
		ID:           "loan-1",
		OwnerID:      "owner-1",
		Bank:         "First Bank",
		Description:  "Car loan",
		Installment:  core.Money{Cents: amountCents},
		Installments: installments,
		StartDate:    start,
	}
}

func TestLoanDueDateClamping(t *testing.T) {
	// Jan 31 start: Feb clamps to 28, March goes back to 31.
	loan := testLoan(core.NewDate(2025, 1, 31), 3, 40000)

	tests := []struct {
		index int
		want  core.Date
	}{
		{0, core.NewDate(2025, 1, 31)},
		{1, core.NewDate(2025, 2, 28)},
		{2, core.NewDate(2025, 3, 31)},
	}

	for _, tt := range tests {
		if got := LoanDueDate(loan, tt.index); !got.Equal(tt.want) {
			t.Errorf("LoanDueDate(%d) = %s, want %s", tt.index, got, tt.want)
		}
	}
}

func TestLoanInstallmentInMonth(t *testing.T) {
	loan := testLoan(core.NewDate(2025, 1, 15), 12, 25000)

	tests := []struct {
		name      string
		month     int
		year      int
		wantCents int64
		wantFound bool
	}{
		{"first installment month", 1, 2025, 25000, true},
		{"middle of schedule", 6, 2025, 25000, true},
		{"last installment month", 12, 2025, 25000, true},
		{"before schedule", 12, 2024, 0, false},
		{"after schedule", 1, 2026, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := LoanInstallmentInMonth(loan, tt.month, tt.year)
			if err != nil {
				t.Fatalf("LoanInstallmentInMonth() error = %v", err)
			}
			if found != tt.wantFound || got.Cents != tt.wantCents {
				t.Errorf("LoanInstallmentInMonth() = %d/%v, want %d/%v",
					got.Cents, found, tt.wantCents, tt.wantFound)
			}
		})
	}
}

func TestLoanEndDateDerived(t *testing.T) {
	tests := []struct {
		name string
		loan core.Loan
		want core.Date
	}{
		{"single installment", testLoan(core.NewDate(2025, 1, 15), 1, 1000), core.NewDate(2025, 1, 15)},
		{"year of installments", testLoan(core.NewDate(2025, 1, 15), 12, 1000), core.NewDate(2025, 12, 15)},
		{"clamped end", testLoan(core.NewDate(2025, 1, 31), 4, 1000), core.NewDate(2025, 4, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loan.EndDate(); !got.Equal(tt.want) {
				t.Errorf("EndDate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLoanInstallmentInMonthRejectsBadInput(t *testing.T) {
	loan := testLoan(core.NewDate(2025, 1, 15), 3, 1000)
	if _, _, err := LoanInstallmentInMonth(loan, 0, 2025); err == nil {
		t.Fatal("expected error for month 0")
	}

	loan.Installments = 0
	if _, _, err := LoanInstallmentInMonth(loan, 1, 2025); err == nil {
		t.Fatal("expected error for zero installments")
	}
}
