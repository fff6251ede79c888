package projection

import (
	"testing"

	"bilancio/internal/core"
)

func testCard(closing, due int) core.CreditCard {
	return core.CreditCard{
		ID:         "card-1",
		OwnerID:    "owner-1",
		Name:       "Main card",
		Limit:      core.Money{Cents: 500000},
		ClosingDay: closing,
		DueDay:     due,
	}
}

func testPurchase(date core.Date, totalCents int64, installments int) core.CreditCardPurchase {
	return core.CreditCardPurchase{
		ID:           "pur-1",
		OwnerID:      "owner-1",
		CardID:       "card-1",
		Date:         date,
		Description:  "Groceries",
		Category:     "Food",
		Total:        core.Money{Cents: totalCents},
		Installments: installments,
	}
}

func TestInstallmentCycleClosingBoundary(t *testing.T) {
	card := testCard(10, 20)

	tests := []struct {
		name      string
		date      core.Date
		index     int
		wantMonth int
		wantYear  int
	}{
		{"on closing day stays in current cycle", core.NewDate(2025, 3, 10), 0, 3, 2025},
		{"day after closing rolls to next cycle", core.NewDate(2025, 3, 11), 0, 4, 2025},
		{"second installment one cycle later", core.NewDate(2025, 3, 10), 1, 4, 2025},
		{"rolls across year end", core.NewDate(2025, 12, 15), 0, 1, 2026},
		{"late installment crosses year", core.NewDate(2025, 10, 5), 4, 2, 2026},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPurchase(tt.date, 30000, 6)
			month, year, err := InstallmentCycle(card, p, tt.index)
			if err != nil {
				t.Fatalf("InstallmentCycle() error = %v", err)
			}
			if month != tt.wantMonth || year != tt.wantYear {
				t.Errorf("InstallmentCycle() = %d/%d, want %d/%d", month, year, tt.wantMonth, tt.wantYear)
			}
		})
	}
}

func TestInstallmentCycleClosingDayClamped(t *testing.T) {
	// Closing day 31 in a 30-day month acts as the 30th; a purchase on the
	// 30th still closes in the current cycle.
	card := testCard(31, 10)
	p := testPurchase(core.NewDate(2025, 4, 30), 10000, 1)

	month, year, err := InstallmentCycle(card, p, 0)
	if err != nil {
		t.Fatalf("InstallmentCycle() error = %v", err)
	}
	if month != 4 || year != 2025 {
		t.Errorf("InstallmentCycle() = %d/%d, want 4/2025", month, year)
	}
}

func TestInstallmentCycleRejectsBadIndex(t *testing.T) {
	card := testCard(10, 20)
	p := testPurchase(core.NewDate(2025, 3, 1), 10000, 3)

	if _, _, err := InstallmentCycle(card, p, 3); err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	if _, _, err := InstallmentCycle(card, p, -1); err == nil {
		t.Fatal("expected error for negative index")
	}

	p.Installments = 0
	if _, _, err := InstallmentCycle(card, p, 0); err == nil {
		t.Fatal("expected error for zero installments")
	}
}

func TestInstallmentAmountConservation(t *testing.T) {
	tests := []struct {
		name         string
		totalCents   int64
		installments int
	}{
		{"even split", 30000, 3},
		{"uneven split", 10000, 3},
		{"single installment", 9999, 1},
		{"two installments odd cent", 10001, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPurchase(core.NewDate(2025, 1, 10), tt.totalCents, tt.installments)
			share := InstallmentAmount(p)
			sum := share.Cents * int64(tt.installments)
			diff := sum - tt.totalCents
			if diff < 0 {
				diff = -diff
			}
			if diff > 1 {
				t.Errorf("installments sum to %d, total %d, drift %d cents", sum, tt.totalCents, diff)
			}
		})
	}
}

func TestInvoiceTotal(t *testing.T) {
	card := testCard(25, 5)
	purchases := []core.CreditCardPurchase{
		// Jan 20 <= closing 25: cycles Jan, Feb, Mar at 100.00 each.
		testPurchase(core.NewDate(2025, 1, 20), 30000, 3),
		// Jan 28 > closing: cycles Feb, Mar at 50.00 each.
		{
			ID: "pur-2", OwnerID: "owner-1", CardID: "card-1",
			Date: core.NewDate(2025, 1, 28), Description: "Shoes", Category: "Clothing",
			Total: core.Money{Cents: 10000}, Installments: 2,
		},
		// Different card, never counted.
		{
			ID: "pur-3", OwnerID: "owner-1", CardID: "card-9",
			Date: core.NewDate(2025, 1, 10), Description: "Other", Category: "Misc",
			Total: core.Money{Cents: 99900}, Installments: 1,
		},
	}

	tests := []struct {
		name  string
		month int
		year  int
		want  int64
	}{
		{"january only first purchase", 1, 2025, 10000},
		{"february both purchases", 2, 2025, 15000},
		{"march both purchases", 3, 2025, 15000},
		{"april nothing cycles", 4, 2025, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InvoiceTotal(card, purchases, tt.month, tt.year)
			if err != nil {
				t.Fatalf("InvoiceTotal() error = %v", err)
			}
			if got.Cents != tt.want {
				t.Errorf("InvoiceTotal() = %d, want %d", got.Cents, tt.want)
			}
		})
	}
}

func TestInvoiceTotalRejectsBadMonth(t *testing.T) {
	card := testCard(25, 5)
	if _, err := InvoiceTotal(card, nil, 13, 2025); err == nil {
		t.Fatal("expected error for month 13")
	}
}

func TestInvoiceDueDateClamped(t *testing.T) {
	card := testCard(25, 31)

	tests := []struct {
		name  string
		month int
		year  int
		want  core.Date
	}{
		{"february clamps", 2, 2025, core.NewDate(2025, 2, 28)},
		{"leap february", 2, 2024, core.NewDate(2024, 2, 29)},
		{"march full length", 3, 2025, core.NewDate(2025, 3, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InvoiceDueDate(card, tt.month, tt.year); !got.Equal(tt.want) {
				t.Errorf("InvoiceDueDate() = %s, want %s", got, tt.want)
			}
		})
	}
}
