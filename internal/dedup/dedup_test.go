package dedup

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/remote"
)

func expense(t *testing.T, id string) ledger.Expense {
	t.Helper()
	e := ledger.NewExpense("u", decimal.NewFromInt(1), "x", "Other", time.Now())
	e.ID = id
	return *e
}

func TestUnsyncedExpenses(t *testing.T) {
	local := []ledger.Expense{expense(t, "a"), expense(t, "b"), expense(t, "c")}

	tests := []struct {
		name      string
		remoteIDs map[string]struct{}
		wantIDs   []string
	}{
		{"nothing remote", map[string]struct{}{}, []string{"a", "b", "c"}},
		{"partial overlap", map[string]struct{}{"b": {}}, []string{"a", "c"}},
		{"all remote", map[string]struct{}{"a": {}, "b": {}, "c": {}}, nil},
		{"unrelated remote ids", map[string]struct{}{"z": {}}, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnsyncedExpenses(local, tt.remoteIDs)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d unsynced, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("unsynced[%d] = %s, want %s (order must be preserved)", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestUnsyncedExpenses_EmptyLocal(t *testing.T) {
	if got := UnsyncedExpenses(nil, map[string]struct{}{"a": {}}); len(got) != 0 {
		t.Errorf("expected no unsynced expenses, got %d", len(got))
	}
}

func TestUnsyncedCategories(t *testing.T) {
	food := ledger.Category{ID: "A", Name: "Food"}
	travel := ledger.Category{ID: "B", Name: "Travel"}
	defaultCat := ledger.Category{ID: "C", Name: "Food & Dining"}

	tests := []struct {
		name    string
		local   []ledger.Category
		remote  []remote.CategoryIdentity
		wantIDs []string
	}{
		{
			name:    "id match excludes",
			local:   []ledger.Category{food},
			remote:  []remote.CategoryIdentity{{ID: "A", Name: "whatever"}},
			wantIDs: nil,
		},
		{
			name:    "case-insensitive name match excludes",
			local:   []ledger.Category{food},
			remote:  []remote.CategoryIdentity{{ID: "B", Name: "food"}},
			wantIDs: nil,
		},
		{
			name:    "no match includes",
			local:   []ledger.Category{food, travel},
			remote:  []remote.CategoryIdentity{{ID: "X", Name: "Rent"}},
			wantIDs: []string{"A", "B"},
		},
		{
			name:    "defaults never sync",
			local:   []ledger.Category{defaultCat},
			remote:  nil,
			wantIDs: nil,
		},
		{
			name:    "mixed",
			local:   []ledger.Category{food, travel, defaultCat},
			remote:  []remote.CategoryIdentity{{ID: "Z", Name: "FOOD"}},
			wantIDs: []string{"B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnsyncedCategories(tt.local, tt.remote)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d unsynced, want %d (%+v)", len(got), len(tt.wantIDs), got)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("unsynced[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestUnsyncedReceipts(t *testing.T) {
	r1 := *ledger.NewReceipt("u", []byte("a"), "a.png", ledger.ExtractedData{}, "")
	r2 := *ledger.NewReceipt("u", []byte("b"), "b.png", ledger.ExtractedData{}, "")

	got := UnsyncedReceipts([]ledger.Receipt{r1, r2}, map[string]struct{}{r1.ID: {}})
	if len(got) != 1 || got[0].ID != r2.ID {
		t.Errorf("expected only %s unsynced, got %+v", r2.ID, got)
	}
}
