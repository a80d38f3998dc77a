package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/calebmcf/pocket/internal/ledger"
)

// LibSQL is a Store backed by a Turso/libSQL database.
//
// The connection string may be a remote database URL
// (libsql://name.turso.io) with an auth token, or a local file: URL, which
// is how tests run against an embedded replica.
type LibSQL struct {
	conn *sql.DB
}

// Connect opens a libSQL connection to the given database URL.
//
// authToken may be empty for local file: URLs. The caller MUST call Close()
// when done.
//
// Example:
//
//	store, err := remote.Connect("libsql://pocket-user.turso.io", token)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Connect(url, authToken string) (*LibSQL, error) {
	dsn := url
	if authToken != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		dsn = url + sep + "authToken=" + authToken
	}

	conn, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetConnMaxIdleTime(time.Minute)

	return &LibSQL{conn: conn}, nil
}

// Close closes the remote connection.
func (s *LibSQL) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// InitSchema creates the remote collections if missing.
//
// Production deployments provision the schema out of band; this exists for
// self-hosted backends and tests. Idempotent.
func (s *LibSQL) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS expenses (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		amount      TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		date        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		id    TEXT PRIMARY KEY,
		name  TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		icon  TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS receipts (
		id                TEXT PRIMARY KEY,
		owner_id          TEXT NOT NULL,
		expense_id        TEXT,
		image_data        TEXT NOT NULL,
		original_filename TEXT NOT NULL DEFAULT '',
		extracted_data    TEXT NOT NULL DEFAULT '{}',
		raw_text          TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_owner ON expenses(owner_id);
	CREATE INDEX IF NOT EXISTS idx_receipts_expense ON receipts(expense_id);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize remote schema: %w", err)
	}
	return nil
}

// Ping implements Store.Ping.
func (s *LibSQL) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("remote unreachable: %w", err)
	}
	return nil
}

// valueRows builds the placeholder groups for a multi-row insert:
// (?, ?, ...), (?, ?, ...), ...
func valueRows(rows, cols int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", cols), ", ") + ")"
	groups := make([]string, rows)
	for i := range groups {
		groups[i] = row
	}
	return strings.Join(groups, ", ")
}

// InsertExpenses implements Store.InsertExpenses.
//
// The whole batch goes in one INSERT statement so the backend accepts or
// rejects it atomically.
func (s *LibSQL) InsertExpenses(ctx context.Context, expenses []ledger.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	query := `INSERT INTO expenses
		(id, owner_id, amount, description, category, date, created_at, updated_at)
		VALUES ` + valueRows(len(expenses), 8)

	args := make([]interface{}, 0, len(expenses)*8)
	for _, e := range expenses {
		args = append(args,
			e.ID,
			e.OwnerID,
			e.Amount.String(),
			e.Description,
			e.Category,
			e.Date,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.UpdatedAt.UTC().Format(time.RFC3339),
		)
	}

	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert expenses: %w", err)
	}
	return nil
}

// SelectExpenseIDs implements Store.SelectExpenseIDs.
func (s *LibSQL) SelectExpenseIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.selectIDs(ctx, "expenses")
}

// InsertCategories implements Store.InsertCategories.
func (s *LibSQL) InsertCategories(ctx context.Context, cats []ledger.Category) error {
	if len(cats) == 0 {
		return nil
	}

	query := `INSERT INTO categories (id, name, color, icon) VALUES ` + valueRows(len(cats), 4)

	args := make([]interface{}, 0, len(cats)*4)
	for _, c := range cats {
		args = append(args, c.ID, c.Name, c.Color, c.Icon)
	}

	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert categories: %w", err)
	}
	return nil
}

// SelectCategoryIdentities implements Store.SelectCategoryIdentities.
func (s *LibSQL) SelectCategoryIdentities(ctx context.Context) ([]CategoryIdentity, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT id, name FROM categories")
	if err != nil {
		return nil, fmt.Errorf("failed to select category identities: %w", err)
	}
	defer rows.Close()

	var out []CategoryIdentity
	for rows.Next() {
		var ci CategoryIdentity
		if err := rows.Scan(&ci.ID, &ci.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category identity: %w", err)
		}
		out = append(out, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category identities: %w", err)
	}
	return out, nil
}

// InsertReceipts implements Store.InsertReceipts.
func (s *LibSQL) InsertReceipts(ctx context.Context, receipts []ledger.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	query := `INSERT INTO receipts
		(id, owner_id, expense_id, image_data, original_filename, extracted_data, raw_text, created_at, updated_at)
		VALUES ` + valueRows(len(receipts), 9)

	args := make([]interface{}, 0, len(receipts)*9)
	for _, r := range receipts {
		extracted, err := json.Marshal(r.Extracted)
		if err != nil {
			return fmt.Errorf("failed to marshal extracted data for receipt %s: %w", r.ID, err)
		}
		var expenseID sql.NullString
		if r.ExpenseID != "" {
			expenseID = sql.NullString{String: r.ExpenseID, Valid: true}
		}
		created := r.CreatedAt.UTC().Format(time.RFC3339)
		args = append(args,
			r.ID,
			r.OwnerID,
			expenseID,
			r.ImageData,
			r.OriginalFilename,
			string(extracted),
			r.RawText,
			created,
			created,
		)
	}

	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert receipts: %w", err)
	}
	return nil
}

// SelectReceiptIDs implements Store.SelectReceiptIDs.
func (s *LibSQL) SelectReceiptIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.selectIDs(ctx, "receipts")
}

// LinkReceipt implements Store.LinkReceipt.
func (s *LibSQL) LinkReceipt(ctx context.Context, receiptID, expenseID string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE receipts SET expense_id = ?, updated_at = ? WHERE id = ?",
		expenseID, time.Now().UTC().Format(time.RFC3339), receiptID,
	)
	if err != nil {
		return fmt.Errorf("failed to link receipt %s to expense %s: %w", receiptID, expenseID, err)
	}
	return nil
}

// selectIDs runs the unbounded id projection for a collection.
func (s *LibSQL) selectIDs(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT id FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s ids: %w", table, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s ids: %w", table, err)
	}
	return ids, nil
}

var _ Store = (*LibSQL)(nil)
