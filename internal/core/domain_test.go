package core

import (
	"testing"
	"time"
)

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "Gaji", Type: Income}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Category{
		{Name: "", Type: Expense},
		{Name: "   ", Type: Expense},
		{Name: "Makan", Type: "savings"},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:      Money{Cents: 100},
		Description: "kopi",
		Type:        Expense,
		Date:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Amount: Money{Cents: -1}, Description: "a", Type: Expense},
		{Amount: Money{Cents: 1}, Description: "", Type: Expense},
		{Amount: Money{Cents: 1}, Description: "a", Type: "transfer"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	// Type consistency with the referenced category is deliberately not
	// checked: an income transaction may point at an expense category.
	mixed := good
	mixed.Type = Income
	mixed.CategoryID = "some-expense-category"
	if err := mixed.Validate(); err != nil {
		t.Fatalf("expected ok for cross-typed category reference, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	for _, err := range []error{ErrInvalidAmount, ErrEmptyDescription, ErrEmptyName, ErrInvalidType} {
		if !IsValidation(err) {
			t.Fatalf("%v should be a validation error", err)
		}
	}
	if IsValidation(nil) {
		t.Fatal("nil is not a validation error")
	}
}

func TestDisplayCategory(t *testing.T) {
	if got := (Transaction{CategoryName: "Makan"}).DisplayCategory(); got != "Makan" {
		t.Fatalf("got %q", got)
	}
	if got := (Transaction{}).DisplayCategory(); got != UncategorizedLabel {
		t.Fatalf("got %q, want %q", got, UncategorizedLabel)
	}
}
