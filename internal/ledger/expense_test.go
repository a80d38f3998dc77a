package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewExpense(t *testing.T) {
	date := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	e := NewExpense("user-1", decimal.NewFromFloat(12.50), "Lunch", "Food & Dining", date)

	if e.ID == "" {
		t.Error("expected a generated ID")
	}
	if e.OwnerID != "user-1" {
		t.Errorf("expected owner user-1, got %q", e.OwnerID)
	}
	if e.Date != "2026-03-14" {
		t.Errorf("expected date 2026-03-14, got %q", e.Date)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("new expense should validate: %v", err)
	}
}

func TestNewExpense_PlaceholderOwner(t *testing.T) {
	e := NewExpense("", decimal.NewFromInt(5), "Coffee", "Food & Dining", time.Now())

	if !IsPlaceholderOwner(e.OwnerID) {
		t.Errorf("expected placeholder owner, got %q", e.OwnerID)
	}

	// Two offline expenses must not share a placeholder identity suffix
	// being equal is fine, but the ID must stay unique.
	e2 := NewExpense("", decimal.NewFromInt(5), "Coffee", "Food & Dining", time.Now())
	if e.ID == e2.ID {
		t.Error("two expenses must not share an ID")
	}
}

func TestIsPlaceholderOwner(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		want    bool
	}{
		{"placeholder", NewPlaceholderOwner(), true},
		{"real user", "a81bc81b-dead-4e5d-abff-90865d1e13b1", false},
		{"empty", "", false},
		{"prefix only", "offline:", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPlaceholderOwner(tt.ownerID); got != tt.want {
				t.Errorf("IsPlaceholderOwner(%q) = %v, want %v", tt.ownerID, got, tt.want)
			}
		})
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := func() *Expense {
		return NewExpense("user-1", decimal.NewFromInt(10), "x", "Other", time.Now())
	}

	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr bool
	}{
		{"valid", func(e *Expense) {}, false},
		{"missing id", func(e *Expense) { e.ID = "" }, true},
		{"missing owner", func(e *Expense) { e.OwnerID = "" }, true},
		{"missing date", func(e *Expense) { e.Date = "" }, true},
		{"malformed date", func(e *Expense) { e.Date = "14/03/2026" }, true},
		{"zero created_at", func(e *Expense) { e.CreatedAt = time.Time{} }, true},
		{"zero updated_at", func(e *Expense) { e.UpdatedAt = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateTimestamp(t *testing.T) {
	e := NewExpense("user-1", decimal.NewFromInt(10), "x", "Other", time.Now())
	before := e.UpdatedAt
	time.Sleep(time.Millisecond)
	e.UpdateTimestamp()
	if !e.UpdatedAt.After(before) {
		t.Error("UpdateTimestamp should advance UpdatedAt")
	}
}
