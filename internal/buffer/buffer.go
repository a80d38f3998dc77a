// Package buffer provides the durable local holding area for records that
// have not yet been confirmed to exist remotely.
//
// The buffer is an embedded SQLite database (WAL mode) holding one table per
// record kind plus a meta table for scalar sync state. Each record is stored
// as a JSON document keyed by its ID; insertion order is preserved so reads
// return records in the order they were added.
//
// The buffer never touches the network. All failures are storage or
// serialization errors and surface as *StorageError.
package buffer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calebmcf/pocket/internal/ledger"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// StorageError wraps a local storage or serialization failure.
type StorageError struct {
	Op  string // operation that failed, e.g. "save expenses"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

const lastSyncKey = "last_sync_timestamp"

// Buffer is the durable local store of records awaiting sync.
type Buffer struct {
	conn *sql.DB
	path string
}

// Open creates a buffer database at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads and
// the schema is created if missing. The caller MUST call Close() when done.
//
// Example:
//
//	buf, err := buffer.Open(filepath.Join(dir, "buffer.db"))
//	if err != nil {
//	    return err
//	}
//	defer buf.Close()
func Open(path string) (*Buffer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storageErr("open", fmt.Errorf("failed to create buffer directory: %w", err))
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, storageErr("open", fmt.Errorf("failed to open database: %w", err))
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, storageErr("open", fmt.Errorf("failed to ping database: %w", err))
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	b := &Buffer{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := b.conn.Exec(pragma); err != nil {
			_ = b.Close()
			return nil, storageErr("open", fmt.Errorf("failed to apply %q: %w", pragma, err))
		}
	}

	if err := b.initSchema(context.Background()); err != nil {
		_ = b.Close()
		return nil, err
	}

	return b, nil
}

// Close closes the buffer database, checkpointing the WAL first.
func (b *Buffer) Close() error {
	if b.conn == nil {
		return nil
	}
	if _, err := b.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := b.conn.Close(); err != nil {
		return storageErr("close", err)
	}
	b.conn = nil
	return nil
}

// Path returns the buffer database file path.
func (b *Buffer) Path() string { return b.path }

func (b *Buffer) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pending_expenses (
		id       TEXT PRIMARY KEY,
		doc      TEXT NOT NULL,
		added_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pending_categories (
		id       TEXT PRIMARY KEY,
		doc      TEXT NOT NULL,
		added_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pending_receipts (
		id       TEXT PRIMARY KEY,
		doc      TEXT NOT NULL,
		added_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := b.conn.ExecContext(ctx, schema); err != nil {
		return storageErr("init schema", err)
	}
	return nil
}

// getAll reads every document from a pending table in insertion order.
func getAll[T any](ctx context.Context, conn *sql.DB, table, op string) ([]T, error) {
	rows, err := conn.QueryContext(ctx, "SELECT doc FROM "+table+" ORDER BY rowid ASC")
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, storageErr(op, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return nil, storageErr(op, fmt.Errorf("failed to decode record: %w", err))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return out, nil
}

// saveAll fully replaces the persisted collection in one transaction.
// Last writer wins at the process level; single-process assumption.
func saveAll[T any](ctx context.Context, conn *sql.DB, table, op string, recs []T, id func(T) string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return storageErr(op, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, rec := range recs {
		doc, err := json.Marshal(rec)
		if err != nil {
			return storageErr(op, fmt.Errorf("failed to encode record: %w", err))
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+table+" (id, doc, added_at) VALUES (?, ?, ?)",
			id(rec), string(doc), now,
		); err != nil {
			return storageErr(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// add appends one document, replacing any previous entry with the same id.
func add[T any](ctx context.Context, conn *sql.DB, table, op string, rec T, id string) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return storageErr(op, fmt.Errorf("failed to encode record: %w", err))
	}
	_, err = conn.ExecContext(ctx,
		"INSERT INTO "+table+" (id, doc, added_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET doc = excluded.doc",
		id, string(doc), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return storageErr(op, err)
	}
	return nil
}

// remove deletes one document by id. Removing a missing id is a no-op.
func remove(ctx context.Context, conn *sql.DB, table, op, id string) error {
	if _, err := conn.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// Expenses returns all buffered expenses in insertion order.
func (b *Buffer) Expenses(ctx context.Context) ([]ledger.Expense, error) {
	return getAll[ledger.Expense](ctx, b.conn, "pending_expenses", "get expenses")
}

// SaveExpenses fully replaces the buffered expense collection.
func (b *Buffer) SaveExpenses(ctx context.Context, expenses []ledger.Expense) error {
	return saveAll(ctx, b.conn, "pending_expenses", "save expenses", expenses,
		func(e ledger.Expense) string { return e.ID })
}

// AddExpense appends one expense to the buffer.
func (b *Buffer) AddExpense(ctx context.Context, e *ledger.Expense) error {
	if err := e.Validate(); err != nil {
		return storageErr("add expense", fmt.Errorf("invalid expense: %w", err))
	}
	return add(ctx, b.conn, "pending_expenses", "add expense", e, e.ID)
}

// RemoveExpense deletes one buffered expense by id.
func (b *Buffer) RemoveExpense(ctx context.Context, id string) error {
	return remove(ctx, b.conn, "pending_expenses", "remove expense", id)
}

// Categories returns all buffered categories in insertion order.
func (b *Buffer) Categories(ctx context.Context) ([]ledger.Category, error) {
	return getAll[ledger.Category](ctx, b.conn, "pending_categories", "get categories")
}

// SaveCategories fully replaces the buffered category collection.
func (b *Buffer) SaveCategories(ctx context.Context, cats []ledger.Category) error {
	return saveAll(ctx, b.conn, "pending_categories", "save categories", cats,
		func(c ledger.Category) string { return c.ID })
}

// AddCategory appends one category to the buffer.
func (b *Buffer) AddCategory(ctx context.Context, c *ledger.Category) error {
	if err := c.Validate(); err != nil {
		return storageErr("add category", fmt.Errorf("invalid category: %w", err))
	}
	return add(ctx, b.conn, "pending_categories", "add category", c, c.ID)
}

// RemoveCategory deletes one buffered category by id.
func (b *Buffer) RemoveCategory(ctx context.Context, id string) error {
	return remove(ctx, b.conn, "pending_categories", "remove category", id)
}

// Receipts returns all buffered receipts in insertion order.
func (b *Buffer) Receipts(ctx context.Context) ([]ledger.Receipt, error) {
	return getAll[ledger.Receipt](ctx, b.conn, "pending_receipts", "get receipts")
}

// SaveReceipts fully replaces the buffered receipt collection.
func (b *Buffer) SaveReceipts(ctx context.Context, receipts []ledger.Receipt) error {
	return saveAll(ctx, b.conn, "pending_receipts", "save receipts", receipts,
		func(r ledger.Receipt) string { return r.ID })
}

// AddReceipt appends one receipt to the buffer.
func (b *Buffer) AddReceipt(ctx context.Context, r *ledger.Receipt) error {
	if err := r.Validate(); err != nil {
		return storageErr("add receipt", fmt.Errorf("invalid receipt: %w", err))
	}
	return add(ctx, b.conn, "pending_receipts", "add receipt", r, r.ID)
}

// RemoveReceipt deletes one buffered receipt by id.
func (b *Buffer) RemoveReceipt(ctx context.Context, id string) error {
	return remove(ctx, b.conn, "pending_receipts", "remove receipt", id)
}

// PendingCounts returns the number of buffered records per kind.
func (b *Buffer) PendingCounts(ctx context.Context) (expenses, categories, receipts int, err error) {
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"pending_expenses", &expenses},
		{"pending_categories", &categories},
		{"pending_receipts", &receipts},
	} {
		if err = b.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return 0, 0, 0, storageErr("count pending", err)
		}
	}
	return expenses, categories, receipts, nil
}

// LastSyncTime returns the timestamp of the last fully successful sync run,
// or the zero time if no run has succeeded yet. Missing entries are not an
// error: callers must treat unknown meta keys as empty.
func (b *Buffer) LastSyncTime(ctx context.Context) (time.Time, error) {
	var value string
	err := b.conn.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = ?", lastSyncKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, storageErr("get last sync time", err)
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, storageErr("get last sync time", fmt.Errorf("corrupt timestamp %q: %w", value, err))
	}
	return t, nil
}

// SetLastSyncTime records the timestamp of a fully successful sync run.
func (b *Buffer) SetLastSyncTime(ctx context.Context, t time.Time) error {
	_, err := b.conn.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		lastSyncKey, t.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return storageErr("set last sync time", err)
	}
	return nil
}
