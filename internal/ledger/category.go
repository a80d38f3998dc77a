package ledger

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// Category classifies expenses by free-text name.
//
// Name is intended to be unique per owner, but that is enforced only by
// convention: the sync engine deduplicates categories by ID or by
// case-insensitive name, since independently-created categories are likely
// to collide semantically ("Food" vs "food").
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon,omitempty"`
}

// NewCategory creates a category with a fresh ID.
func NewCategory(name, color, icon string) *Category {
	return &Category{
		ID:    uuid.NewString(),
		Name:  name,
		Color: color,
		Icon:  icon,
	}
}

// Validate checks that the category has valid field values.
func (c *Category) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(c.Name) > 100 {
		return fmt.Errorf("name must be 100 characters or less (got %d)", len(c.Name))
	}
	return nil
}

// DefaultCategories returns the fixed set of categories seeded on first use.
//
// Default categories are excluded from sync: they are assumed to pre-exist
// remotely and are irrelevant to reconciliation.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Food & Dining", Color: "#FF6B6B", Icon: "🍔"},
		{ID: "2", Name: "Transportation", Color: "#4ECDC4", Icon: "🚗"},
		{ID: "3", Name: "Shopping", Color: "#45B7D1", Icon: "🛍️"},
		{ID: "4", Name: "Entertainment", Color: "#96CEB4", Icon: "🎬"},
		{ID: "5", Name: "Bills & Utilities", Color: "#FFEAA7", Icon: "💡"},
		{ID: "6", Name: "Healthcare", Color: "#DDA0DD", Icon: "🏥"},
		{ID: "7", Name: "Education", Color: "#98D8C8", Icon: "📚"},
		{ID: "8", Name: "Other", Color: "#F7DC6F", Icon: "💰"},
	}
}

// IsDefaultCategory reports whether c is one of the seeded defaults,
// matched by case-insensitive name.
func IsDefaultCategory(c Category) bool {
	for _, d := range DefaultCategories() {
		if strings.EqualFold(c.Name, d.Name) {
			return true
		}
	}
	return false
}

// categorySeedFile is the TOML structure for a custom category seed file.
type categorySeedFile struct {
	Category []Category `toml:"category"`
}

// LoadCategorySeeds reads a TOML seed file defining the local category set.
//
// The file holds repeated [[category]] blocks with name, color, and icon.
// Categories without an ID are assigned one. An empty path or a missing
// file yields the built-in defaults.
func LoadCategorySeeds(path string) ([]Category, error) {
	if path == "" {
		return DefaultCategories(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCategories(), nil
		}
		return nil, fmt.Errorf("failed to read category seed file %s: %w", path, err)
	}

	var seeds categorySeedFile
	if err := toml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse category seed file %s: %w", path, err)
	}

	cats := seeds.Category
	for i := range cats {
		if cats[i].ID == "" {
			cats[i].ID = uuid.NewString()
		}
		if err := cats[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid category %q in seed file: %w", cats[i].Name, err)
		}
	}
	if len(cats) == 0 {
		return DefaultCategories(), nil
	}
	return cats, nil
}
