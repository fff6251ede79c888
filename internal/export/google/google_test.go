package google

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func TestTransactionRow(t *testing.T) {
	tx := core.Transaction{
		OwnerID:     "alice",
		Kind:        core.KindExpense,
		Amount:      core.Money{Cents: 4250},
		Category:    "Groceries",
		Date:        core.NewDate(2025, 3, 12),
		Description: "weekly shop",
		Recurrence:  core.FrequencyNone,
	}

	row := transactionRow(tx)
	if len(row) != 7 {
		t.Fatalf("row has %d columns, want 7", len(row))
	}
	if row[0] != "2025-03-12" {
		t.Errorf("date column = %v, want 2025-03-12", row[0])
	}
	if row[1] != "alice" || row[2] != "expense" {
		t.Errorf("owner/kind = %v/%v", row[1], row[2])
	}
	if row[5] != 42.50 {
		t.Errorf("amount column = %v, want 42.50", row[5])
	}
	if row[6] != "none" {
		t.Errorf("recurrence column = %v, want none", row[6])
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), "", "Transactions"); err == nil {
		t.Error("expected error for empty spreadsheet id")
	}
}
