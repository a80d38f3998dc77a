// Package remote provides the client for the authoritative backend store.
//
// The remote store is reachable only when online and authorized. It exposes
// three logical collections (expenses, categories, receipts), each supporting
// batch insert, an id-only projection used for existence checks, and an
// update-by-id for linking receipts to expenses created after them.
//
// Identity and row-level authorization are enforced by the backend, not by
// this client.
package remote

import (
	"context"

	"github.com/calebmcf/pocket/internal/ledger"
)

// CategoryIdentity is the projection used for category existence checks.
// Categories are deduplicated by id or by case-insensitive name, so the
// name travels alongside the id.
type CategoryIdentity struct {
	ID   string
	Name string
}

// Store is the contract the sync engine depends on.
//
// Batch inserts are all-or-nothing per call: a single rejected record fails
// the whole batch for that kind, because the backend enforces its own
// constraints atomically per statement. The id projections are unbounded
// and fetch every id in one query; no pagination is assumed. This is a
// known scaling limit for very large remote collections.
type Store interface {
	// Ping probes backend reachability. Used as the connectivity signal.
	Ping(ctx context.Context) error

	// InsertExpenses pushes a batch of expenses in one atomic statement.
	InsertExpenses(ctx context.Context, expenses []ledger.Expense) error

	// SelectExpenseIDs returns the set of expense ids present remotely.
	SelectExpenseIDs(ctx context.Context) (map[string]struct{}, error)

	// InsertCategories pushes a batch of categories in one atomic statement.
	InsertCategories(ctx context.Context, cats []ledger.Category) error

	// SelectCategoryIdentities returns the id and name of every remote
	// category, for id-or-name deduplication.
	SelectCategoryIdentities(ctx context.Context) ([]CategoryIdentity, error)

	// InsertReceipts pushes a batch of receipts in one atomic statement.
	InsertReceipts(ctx context.Context, receipts []ledger.Receipt) error

	// SelectReceiptIDs returns the set of receipt ids present remotely.
	SelectReceiptIDs(ctx context.Context) (map[string]struct{}, error)

	// LinkReceipt attaches a receipt to the expense it produced.
	LinkReceipt(ctx context.Context, receiptID, expenseID string) error
}
