package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// placeholderPrefix marks owner IDs assigned while no user was
// authenticated. The sync engine replaces these at push time.
const placeholderPrefix = "offline:"

// Expense is a single financial transaction entry.
//
// The ID is assigned once at creation (offline or online) and is stable for
// the record's lifetime. OwnerID holds a placeholder sentinel while created
// offline and is rewritten to the authenticated identity during sync.
type Expense struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"` // free-text category name
	Date        string          `json:"date"`     // YYYY-MM-DD

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewExpense creates an expense with a fresh ID and timestamps.
//
// ownerID may be empty, in which case a placeholder owner is assigned so the
// record can be buffered offline and claimed at sync time.
func NewExpense(ownerID string, amount decimal.Decimal, description, category string, date time.Time) *Expense {
	if ownerID == "" {
		ownerID = NewPlaceholderOwner()
	}
	now := time.Now().UTC()
	return &Expense{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        date.Format("2006-01-02"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks that the expense has valid field values.
func (e *Expense) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if e.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if e.Date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD (got %q)", e.Date)
	}
	if e.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	if e.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at is required")
	}
	return nil
}

// UpdateTimestamp sets UpdatedAt to the current time.
// Call whenever any field is modified.
func (e *Expense) UpdateTimestamp() {
	e.UpdatedAt = time.Now().UTC()
}

// NewPlaceholderOwner returns a sentinel owner identity for records created
// without an authenticated user. Each call returns a distinct value.
func NewPlaceholderOwner() string {
	return placeholderPrefix + uuid.NewString()
}

// IsPlaceholderOwner reports whether ownerID is a sentinel assigned while
// offline, rather than a real authenticated identity.
func IsPlaceholderOwner(ownerID string) bool {
	return strings.HasPrefix(ownerID, placeholderPrefix)
}
