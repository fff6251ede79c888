package projection

import (
	"testing"

	"bilancio/internal/core"
)

func paceExpense(id string, date core.Date, cents int64) core.Transaction {
	return core.Transaction{
		ID: id, OwnerID: "owner-1", Kind: core.KindExpense,
		Amount: core.Money{Cents: cents}, Category: "Misc",
		Date: date, Recurrence: core.FrequencyNone,
	}
}

func TestComparePaceThresholds(t *testing.T) {
	today := core.NewDate(2025, 3, 15)

	tests := []struct {
		name         string
		currentCents int64
		wantLevel    AlertLevel
		wantNil      bool
	}{
		{"forty percent increase warns", 140000, AlertWarning, false},
		{"forty percent decrease informs", 60000, AlertInfo, false},
		{"ten percent increase is quiet", 110000, "", true},
		{"exactly at warning threshold is quiet", 130000, "", true},
		{"exactly at info threshold is quiet", 70000, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := PaceInput{
				Transactions: []core.Transaction{
					paceExpense("prev", core.NewDate(2025, 2, 10), 100000),
					paceExpense("curr", core.NewDate(2025, 3, 10), tt.currentCents),
				},
				Today: today,
			}
			got, err := ComparePace(in)
			if err != nil {
				t.Fatalf("ComparePace() error = %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected no alert, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected an alert, got nil")
			}
			if got.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", got.Level, tt.wantLevel)
			}
			if got.PreviousCents != 100000 || got.CurrentCents != tt.currentCents {
				t.Errorf("amounts = %d/%d, want %d/100000", got.CurrentCents, got.PreviousCents, tt.currentCents)
			}
		})
	}
}

func TestComparePaceSilentCases(t *testing.T) {
	tests := []struct {
		name  string
		input PaceInput
	}{
		{
			name: "first day of month",
			input: PaceInput{
				Transactions: []core.Transaction{
					paceExpense("prev", core.NewDate(2025, 2, 10), 100000),
					paceExpense("curr", core.NewDate(2025, 3, 1), 500000),
				},
				Today: core.NewDate(2025, 3, 1),
			},
		},
		{
			name: "previous period empty",
			input: PaceInput{
				Transactions: []core.Transaction{
					paceExpense("curr", core.NewDate(2025, 3, 5), 500000),
				},
				Today: core.NewDate(2025, 3, 15),
			},
		},
		{
			name: "current period empty",
			input: PaceInput{
				Transactions: []core.Transaction{
					paceExpense("prev", core.NewDate(2025, 2, 10), 100000),
				},
				Today: core.NewDate(2025, 3, 15),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComparePace(tt.input)
			if err != nil {
				t.Fatalf("ComparePace() error = %v", err)
			}
			if got != nil {
				t.Errorf("expected no alert, got %+v", got)
			}
		})
	}
}

func TestComparePaceRejectsZeroDateRecord(t *testing.T) {
	in := PaceInput{
		Transactions: []core.Transaction{
			paceExpense("broken", core.Date{}, 100000),
		},
		Today: core.NewDate(2025, 3, 15),
	}
	if _, err := ComparePace(in); err == nil {
		t.Fatal("expected error for zero-date record")
	}
}

func TestComparePaceDayRangeClamped(t *testing.T) {
	// Today is Mar 30: the previous range clamps to Feb 28 and still
	// catches the purchase of the 28th.
	in := PaceInput{
		Transactions: []core.Transaction{
			paceExpense("prev", core.NewDate(2025, 2, 28), 100000),
			paceExpense("curr", core.NewDate(2025, 3, 29), 150000),
		},
		Today: core.NewDate(2025, 3, 30),
	}
	got, err := ComparePace(in)
	if err != nil {
		t.Fatalf("ComparePace() error = %v", err)
	}
	if got == nil || got.Level != AlertWarning {
		t.Fatalf("expected warning, got %+v", got)
	}
}

func TestComparePaceIncludesCardInstallments(t *testing.T) {
	card := core.CreditCard{
		ID: "card-1", OwnerID: "owner-1", Name: "Main card",
		Limit: core.Money{Cents: 1000000}, ClosingDay: 25, DueDay: 5,
	}
	in := PaceInput{
		Transactions: []core.Transaction{
			paceExpense("prev", core.NewDate(2025, 2, 10), 100000),
		},
		Cards: []core.CreditCard{card},
		Purchases: []core.CreditCardPurchase{
			// Mar 10 purchase, single installment cycling in March,
			// inside the day 1-15 range.
			{
				ID: "pur-1", OwnerID: "owner-1", CardID: "card-1",
				Date: core.NewDate(2025, 3, 10), Description: "Boots", Category: "Clothing",
				Total: core.Money{Cents: 140000}, Installments: 1,
			},
			// Mar 20 purchase is outside the day range and ignored.
			{
				ID: "pur-2", OwnerID: "owner-1", CardID: "card-1",
				Date: core.NewDate(2025, 3, 20), Description: "Coat", Category: "Clothing",
				Total: core.Money{Cents: 990000}, Installments: 1,
			},
		},
		Today: core.NewDate(2025, 3, 15),
	}

	got, err := ComparePace(in)
	if err != nil {
		t.Fatalf("ComparePace() error = %v", err)
	}
	if got == nil || got.Level != AlertWarning {
		t.Fatalf("expected warning from card installment, got %+v", got)
	}
	if got.CurrentCents != 140000 {
		t.Errorf("current = %d, want 140000", got.CurrentCents)
	}
}

func TestComparePaceRecurringExcluded(t *testing.T) {
	rent := core.Transaction{
		ID: "rent", OwnerID: "owner-1", Kind: core.KindExpense,
		Amount: core.Money{Cents: 80000}, Category: "Housing",
		Date: core.NewDate(2024, 1, 1), Recurrence: core.FrequencyMonthly,
	}
	in := PaceInput{
		Transactions: []core.Transaction{
			rent,
			paceExpense("prev", core.NewDate(2025, 2, 10), 100000),
		},
		Today: core.NewDate(2025, 3, 15),
	}
	got, err := ComparePace(in)
	if err != nil {
		t.Fatalf("ComparePace() error = %v", err)
	}
	// Recurring templates are steady-state noise for pace purposes; with
	// them excluded the current period is empty and no alert fires.
	if got != nil {
		t.Errorf("expected no alert, got %+v", got)
	}
}
