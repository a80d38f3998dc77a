// Package dedup decides whether locally-buffered records already have a
// counterpart in the remote store.
//
// All functions here are pure: they take local records plus a remote
// identity snapshot and compute the unsynced subset. Both the sync engine
// and the "has unsynced data" check run through these same functions, so the
// two can never disagree about what counts as unsynced.
package dedup

import (
	"strings"

	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/remote"
)

// UnsyncedExpenses returns the local expenses whose id is absent from the
// remote id set. Order is preserved.
func UnsyncedExpenses(local []ledger.Expense, remoteIDs map[string]struct{}) []ledger.Expense {
	var out []ledger.Expense
	for _, e := range local {
		if _, ok := remoteIDs[e.ID]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// UnsyncedCategories returns the local non-default categories that exist
// remotely neither by id nor by case-folded name.
//
// Independently created categories collide semantically ("Food" offline,
// "food" online), so a name match alone marks a category as synced.
// Default categories are never candidates for sync.
func UnsyncedCategories(local []ledger.Category, rem []remote.CategoryIdentity) []ledger.Category {
	remoteIDs := make(map[string]struct{}, len(rem))
	remoteNames := make(map[string]struct{}, len(rem))
	for _, ci := range rem {
		remoteIDs[ci.ID] = struct{}{}
		remoteNames[strings.ToLower(ci.Name)] = struct{}{}
	}

	var out []ledger.Category
	for _, c := range local {
		if ledger.IsDefaultCategory(c) {
			continue
		}
		if _, ok := remoteIDs[c.ID]; ok {
			continue
		}
		if _, ok := remoteNames[strings.ToLower(c.Name)]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// UnsyncedReceipts returns the local receipts whose id is absent from the
// remote id set. Order is preserved.
func UnsyncedReceipts(local []ledger.Receipt, remoteIDs map[string]struct{}) []ledger.Receipt {
	var out []ledger.Receipt
	for _, r := range local {
		if _, ok := remoteIDs[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}
