package engine_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calebmcf/pocket/internal/buffer"
	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/engine"
	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/remote"
)

// Example_offlineThenSync demonstrates the core flow: buffer an expense
// while offline, then let the coordinator push it once connectivity and
// identity are established.
func Example_offlineThenSync() {
	dir, err := os.MkdirTemp("", "pocket-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	buf, err := buffer.Open(filepath.Join(dir, "pending.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer buf.Close()

	ctx := context.Background()

	// While offline the expense gets a placeholder owner and sits in the
	// local buffer.
	e := ledger.NewExpense("", decimal.NewFromInt(42), "groceries", "Food & Dining", time.Now())
	if err := buf.AddExpense(ctx, e); err != nil {
		log.Fatal(err)
	}

	gate := engine.NewGate()
	events := bus.New()
	events.Subscribe(bus.TopicSyncSucceeded, func(payload interface{}) {
		result := payload.(*engine.SyncResult)
		fmt.Printf("synced %d records\n", result.TotalSynced())
	})

	var store remote.Store = newMemoryStore()
	c := engine.New(buf, store, gate, events, log.New(os.Stderr, "[sync] ", 0))

	// Connectivity and login arrive; the gate opens and a run succeeds.
	gate.SetOnline(true)
	gate.SetUser("user-1")
	if _, err := c.Sync(ctx); err != nil {
		log.Fatal(err)
	}

	// Output:
	// synced 1 records
}

// memoryStore is a minimal in-memory remote.Store for the example.
type memoryStore struct {
	expenses   map[string]ledger.Expense
	categories map[string]ledger.Category
	receipts   map[string]ledger.Receipt
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		expenses:   make(map[string]ledger.Expense),
		categories: make(map[string]ledger.Category),
		receipts:   make(map[string]ledger.Receipt),
	}
}

func (m *memoryStore) Ping(ctx context.Context) error { return nil }

func (m *memoryStore) InsertExpenses(ctx context.Context, expenses []ledger.Expense) error {
	for _, e := range expenses {
		m.expenses[e.ID] = e
	}
	return nil
}

func (m *memoryStore) SelectExpenseIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(m.expenses))
	for id := range m.expenses {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (m *memoryStore) InsertCategories(ctx context.Context, cats []ledger.Category) error {
	for _, c := range cats {
		m.categories[c.ID] = c
	}
	return nil
}

func (m *memoryStore) SelectCategoryIdentities(ctx context.Context) ([]remote.CategoryIdentity, error) {
	out := make([]remote.CategoryIdentity, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, remote.CategoryIdentity{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

func (m *memoryStore) InsertReceipts(ctx context.Context, receipts []ledger.Receipt) error {
	for _, r := range receipts {
		m.receipts[r.ID] = r
	}
	return nil
}

func (m *memoryStore) SelectReceiptIDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(m.receipts))
	for id := range m.receipts {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (m *memoryStore) LinkReceipt(ctx context.Context, receiptID, expenseID string) error {
	r, ok := m.receipts[receiptID]
	if !ok {
		return fmt.Errorf("receipt %s not found", receiptID)
	}
	r.ExpenseID = expenseID
	m.receipts[receiptID] = r
	return nil
}
