package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/calebmcf/pocket/internal/buffer"
	"github.com/calebmcf/pocket/internal/bus"
	"github.com/calebmcf/pocket/internal/dedup"
	"github.com/calebmcf/pocket/internal/ledger"
	"github.com/calebmcf/pocket/internal/remote"
)

// Coordinator orchestrates one end-to-end reconciliation run:
// gate check, diff, push, verify, cleanup, notify.
//
// A run walks the record kinds sequentially (expenses, categories,
// receipts) so the existence snapshot stays consistent with the push. Each
// kind's failure is recorded without aborting the others. At most one run
// is active at a time; concurrent triggers are rejected, not queued.
type Coordinator struct {
	buf    *buffer.Buffer
	store  remote.Store
	gate   *Gate
	events *bus.Bus
	logger *log.Logger

	mu         sync.Mutex
	inProgress bool

	now func() time.Time
}

// New creates a Coordinator.
//
// All collaborators are required except logger; if logger is nil, a default
// logger writing to stderr is used.
func New(buf *buffer.Buffer, store remote.Store, gate *Gate, events *bus.Bus, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Coordinator{
		buf:    buf,
		store:  store,
		gate:   gate,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Gate returns the connectivity/auth gate so signal sources can drive it.
func (c *Coordinator) Gate() *Gate { return c.gate }

// InProgress reports whether a run is currently active.
func (c *Coordinator) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress
}

// TriggerSync starts a run without waiting for it. The result is observed
// via the event bus. A trigger that lands while a run is active is dropped
// with a log line, matching Sync's ErrAlreadyInProgress behavior.
func (c *Coordinator) TriggerSync(ctx context.Context) {
	go func() {
		if _, err := c.Sync(ctx); err != nil {
			c.logger.Printf("Sync trigger dropped: %v", err)
		}
	}()
}

// Sync performs one synchronous reconciliation run and returns its result.
//
// The only error return is ErrAlreadyInProgress, when another run holds the
// single-flight guard: in that case no run happened and nothing was
// published. Every other failure mode resolves to a SyncResult with
// Success=false; the engine never panics the host process.
func (c *Coordinator) Sync(ctx context.Context) (*SyncResult, error) {
	c.mu.Lock()
	if c.inProgress {
		c.mu.Unlock()
		c.logger.Println("Sync already in progress, skipping")
		return nil, ErrAlreadyInProgress
	}
	c.inProgress = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inProgress = false
		c.mu.Unlock()
	}()

	started := c.now()
	result := newResult(started)

	ok, reason := c.gate.CanSync()
	if !ok {
		kind := KindOffline
		if reason == DenyUnauthenticated {
			kind = KindAuthRequired
		}
		result.recordError("", kind, fmt.Errorf("sync not permitted: %s", reason))
		return c.finish(result), nil
	}

	owner := c.gate.UserID()
	c.logger.Printf("Starting offline data sync for user %s", owner)

	c.syncExpenses(ctx, owner, result)
	c.syncCategories(ctx, result)
	c.syncReceipts(ctx, owner, result)

	// Retire confirmed entries from the buffer. Only kinds that completed
	// without errors are cleaned, and only records re-verified as present
	// remotely are removed: records buffered during the run survive.
	if result.kindClean(RecordExpenses) {
		c.cleanupExpenses(ctx, result)
	}
	if result.kindClean(RecordCategories) {
		c.cleanupCategories(ctx, result)
	}
	if result.kindClean(RecordReceipts) {
		c.cleanupReceipts(ctx, result)
	}

	if len(result.Errors) == 0 {
		if err := c.buf.SetLastSyncTime(ctx, c.now()); err != nil {
			result.recordError("", KindStorage, err)
		}
	}

	return c.finish(result), nil
}

// finish stamps the result, publishes it, and logs the outcome.
func (c *Coordinator) finish(result *SyncResult) *SyncResult {
	result.FinishedAt = c.now()

	if result.Success {
		c.logger.Printf("Sync completed: %d records synced", result.TotalSynced())
		c.events.Publish(bus.TopicSyncSucceeded, result)
	} else {
		msgs := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			msgs[i] = e.Error()
		}
		c.logger.Printf("Sync completed with errors: %s", strings.Join(msgs, "; "))
		c.events.Publish(bus.TopicSyncFailed, result)
	}
	return result
}

// syncExpenses pushes the unsynced expense subset, stamping the
// authenticated owner over any offline placeholder.
func (c *Coordinator) syncExpenses(ctx context.Context, owner string, result *SyncResult) {
	local, err := c.buf.Expenses(ctx)
	if err != nil {
		result.recordError(RecordExpenses, KindStorage, err)
		return
	}
	if len(local) == 0 {
		c.logger.Println("No offline expenses to sync")
		return
	}

	remoteIDs, err := c.store.SelectExpenseIDs(ctx)
	if err != nil {
		result.recordError(RecordExpenses, KindRemoteQuery, err)
		return
	}

	toPush := dedup.UnsyncedExpenses(local, remoteIDs)
	if len(toPush) == 0 {
		c.logger.Println("All offline expenses already exist online")
		return
	}

	for i := range toPush {
		toPush[i].OwnerID = owner
	}

	c.logger.Printf("Syncing %d new expenses", len(toPush))
	if err := c.store.InsertExpenses(ctx, toPush); err != nil {
		result.recordError(RecordExpenses, KindRemoteWrite, err)
		return
	}
	result.Counts[RecordExpenses] = len(toPush)
}

// syncCategories pushes unsynced non-default categories, deduplicated by
// id or case-insensitive name.
func (c *Coordinator) syncCategories(ctx context.Context, result *SyncResult) {
	local, err := c.buf.Categories(ctx)
	if err != nil {
		result.recordError(RecordCategories, KindStorage, err)
		return
	}
	if len(local) == 0 {
		return
	}

	identities, err := c.store.SelectCategoryIdentities(ctx)
	if err != nil {
		result.recordError(RecordCategories, KindRemoteQuery, err)
		return
	}

	toPush := dedup.UnsyncedCategories(local, identities)
	if len(toPush) == 0 {
		c.logger.Println("All custom categories already exist online")
		return
	}

	c.logger.Printf("Syncing %d new categories", len(toPush))
	if err := c.store.InsertCategories(ctx, toPush); err != nil {
		result.recordError(RecordCategories, KindRemoteWrite, err)
		return
	}
	result.Counts[RecordCategories] = len(toPush)
}

// syncReceipts pushes unsynced receipts with the authenticated owner.
func (c *Coordinator) syncReceipts(ctx context.Context, owner string, result *SyncResult) {
	local, err := c.buf.Receipts(ctx)
	if err != nil {
		result.recordError(RecordReceipts, KindStorage, err)
		return
	}
	if len(local) == 0 {
		return
	}

	remoteIDs, err := c.store.SelectReceiptIDs(ctx)
	if err != nil {
		result.recordError(RecordReceipts, KindRemoteQuery, err)
		return
	}

	toPush := dedup.UnsyncedReceipts(local, remoteIDs)
	if len(toPush) == 0 {
		return
	}

	for i := range toPush {
		toPush[i].OwnerID = owner
	}

	c.logger.Printf("Syncing %d new receipts", len(toPush))
	if err := c.store.InsertReceipts(ctx, toPush); err != nil {
		result.recordError(RecordReceipts, KindRemoteWrite, err)
		return
	}
	result.Counts[RecordReceipts] = len(toPush)
}

// cleanupExpenses removes from the buffer exactly the expenses re-verified
// as present remotely. Retirement is per id, so a record another process
// buffers while the run is in flight is never touched.
func (c *Coordinator) cleanupExpenses(ctx context.Context, result *SyncResult) {
	current, err := c.buf.Expenses(ctx)
	if err != nil {
		result.recordError(RecordExpenses, KindStorage, err)
		return
	}
	if len(current) == 0 {
		return
	}

	remoteIDs, err := c.store.SelectExpenseIDs(ctx)
	if err != nil {
		result.recordError(RecordExpenses, KindRemoteQuery, err)
		return
	}

	var confirmed []string
	for _, e := range current {
		if _, ok := remoteIDs[e.ID]; ok {
			confirmed = append(confirmed, e.ID)
		}
	}
	if len(confirmed) == 0 {
		return
	}
	c.logger.Printf("Cleaning up %d synced expenses from buffer", len(confirmed))
	for _, id := range confirmed {
		if err := c.buf.RemoveExpense(ctx, id); err != nil {
			result.recordError(RecordExpenses, KindStorage, err)
			return
		}
	}
}

// cleanupCategories removes buffered categories confirmed remote by id or
// case-insensitive name.
func (c *Coordinator) cleanupCategories(ctx context.Context, result *SyncResult) {
	current, err := c.buf.Categories(ctx)
	if err != nil {
		result.recordError(RecordCategories, KindStorage, err)
		return
	}
	if len(current) == 0 {
		return
	}

	identities, err := c.store.SelectCategoryIdentities(ctx)
	if err != nil {
		result.recordError(RecordCategories, KindRemoteQuery, err)
		return
	}

	remoteIDs := make(map[string]struct{}, len(identities))
	remoteNames := make(map[string]struct{}, len(identities))
	for _, ci := range identities {
		remoteIDs[ci.ID] = struct{}{}
		remoteNames[strings.ToLower(ci.Name)] = struct{}{}
	}

	var confirmed []string
	for _, cat := range current {
		_, byID := remoteIDs[cat.ID]
		_, byName := remoteNames[strings.ToLower(cat.Name)]
		if byID || byName {
			confirmed = append(confirmed, cat.ID)
		}
	}
	if len(confirmed) == 0 {
		return
	}
	c.logger.Printf("Cleaning up %d synced categories from buffer", len(confirmed))
	for _, id := range confirmed {
		if err := c.buf.RemoveCategory(ctx, id); err != nil {
			result.recordError(RecordCategories, KindStorage, err)
			return
		}
	}
}

// cleanupReceipts removes from the buffer exactly the receipts re-verified
// as present remotely.
func (c *Coordinator) cleanupReceipts(ctx context.Context, result *SyncResult) {
	current, err := c.buf.Receipts(ctx)
	if err != nil {
		result.recordError(RecordReceipts, KindStorage, err)
		return
	}
	if len(current) == 0 {
		return
	}

	remoteIDs, err := c.store.SelectReceiptIDs(ctx)
	if err != nil {
		result.recordError(RecordReceipts, KindRemoteQuery, err)
		return
	}

	var confirmed []string
	for _, r := range current {
		if _, ok := remoteIDs[r.ID]; ok {
			confirmed = append(confirmed, r.ID)
		}
	}
	if len(confirmed) == 0 {
		return
	}
	c.logger.Printf("Cleaning up %d synced receipts from buffer", len(confirmed))
	for _, id := range confirmed {
		if err := c.buf.RemoveReceipt(ctx, id); err != nil {
			result.recordError(RecordReceipts, KindStorage, err)
			return
		}
	}
}

// HasUnsyncedData reports whether any buffered record lacks a confirmed
// remote counterpart.
//
// When the gate denies remote access (offline, forced offline, or
// unauthenticated) the remote comparison is impossible, so any buffered
// record counts as unsynced. The same dedup functions used by Sync make
// this check and the push agree by construction.
func (c *Coordinator) HasUnsyncedData(ctx context.Context) (bool, error) {
	expenses, err := c.buf.Expenses(ctx)
	if err != nil {
		return false, err
	}
	categories, err := c.buf.Categories(ctx)
	if err != nil {
		return false, err
	}
	receipts, err := c.buf.Receipts(ctx)
	if err != nil {
		return false, err
	}

	var customCats []ledger.Category
	for _, cat := range categories {
		if !ledger.IsDefaultCategory(cat) {
			customCats = append(customCats, cat)
		}
	}

	if len(expenses) == 0 && len(customCats) == 0 && len(receipts) == 0 {
		return false, nil
	}

	if ok, _ := c.gate.CanSync(); !ok {
		return true, nil
	}

	if len(expenses) > 0 {
		remoteIDs, err := c.store.SelectExpenseIDs(ctx)
		if err != nil {
			return true, nil // cannot verify, assume unsynced
		}
		if len(dedup.UnsyncedExpenses(expenses, remoteIDs)) > 0 {
			return true, nil
		}
	}

	if len(customCats) > 0 {
		identities, err := c.store.SelectCategoryIdentities(ctx)
		if err != nil {
			return true, nil
		}
		if len(dedup.UnsyncedCategories(customCats, identities)) > 0 {
			return true, nil
		}
	}

	if len(receipts) > 0 {
		remoteIDs, err := c.store.SelectReceiptIDs(ctx)
		if err != nil {
			return true, nil
		}
		if len(dedup.UnsyncedReceipts(receipts, remoteIDs)) > 0 {
			return true, nil
		}
	}

	return false, nil
}

// LastSyncTime returns the timestamp of the last fully successful run, or
// the zero time if none.
func (c *Coordinator) LastSyncTime(ctx context.Context) (time.Time, error) {
	return c.buf.LastSyncTime(ctx)
}

// LinkReceipt attaches a receipt to the expense it produced. The buffered
// copy is updated if present; otherwise the receipt already lives remotely
// and the link is written there, provided the gate permits.
func (c *Coordinator) LinkReceipt(ctx context.Context, receiptID, expenseID string) error {
	receipts, err := c.buf.Receipts(ctx)
	if err != nil {
		return err
	}
	for i := range receipts {
		if receipts[i].ID == receiptID {
			receipts[i].ExpenseID = expenseID
			if err := c.buf.AddReceipt(ctx, &receipts[i]); err != nil {
				return err
			}
			c.logger.Printf("Linked buffered receipt %s to expense %s", receiptID, expenseID)
			return nil
		}
	}

	if ok, reason := c.gate.CanSync(); !ok {
		return fmt.Errorf("receipt %s not buffered and remote not reachable: %s", receiptID, reason)
	}
	if err := c.store.LinkReceipt(ctx, receiptID, expenseID); err != nil {
		return err
	}
	c.logger.Printf("Linked remote receipt %s to expense %s", receiptID, expenseID)
	return nil
}
