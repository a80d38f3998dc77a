package ledger

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExtractedData holds the fields the OCR collaborator pulled from a
// receipt image. It travels with the receipt but is never interpreted by
// the sync engine.
type ExtractedData struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Vendor      string          `json:"vendor,omitempty"`
	Confidence  float64         `json:"confidence"`
}

// Receipt is a scanned receipt image buffered for upload, optionally linked
// to the expense it produced.
//
// ImageData is the base64 encoding of the original image bytes. The
// encoding must round-trip exactly: DecodeImage(EncodeImage(b)) == b.
type Receipt struct {
	ID               string        `json:"id"`
	OwnerID          string        `json:"owner_id"`
	ExpenseID        string        `json:"expense_id,omitempty"`
	ImageData        string        `json:"image_data"`
	OriginalFilename string        `json:"original_filename"`
	Extracted        ExtractedData `json:"extracted_data"`
	RawText          string        `json:"raw_text,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// NewReceipt creates a receipt with a fresh ID from raw image bytes.
//
// ownerID may be empty; a placeholder owner is assigned as for expenses.
func NewReceipt(ownerID string, image []byte, filename string, extracted ExtractedData, rawText string) *Receipt {
	if ownerID == "" {
		ownerID = NewPlaceholderOwner()
	}
	return &Receipt{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		ImageData:        EncodeImage(image),
		OriginalFilename: filename,
		Extracted:        extracted,
		RawText:          rawText,
		CreatedAt:        time.Now().UTC(),
	}
}

// Validate checks that the receipt has valid field values.
func (r *Receipt) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if r.ImageData == "" {
		return fmt.Errorf("image_data is required")
	}
	if _, err := base64.StdEncoding.DecodeString(r.ImageData); err != nil {
		return fmt.Errorf("image_data is not valid base64: %w", err)
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("created_at is required")
	}
	return nil
}

// Image returns the decoded original image bytes.
func (r *Receipt) Image() ([]byte, error) {
	return DecodeImage(r.ImageData)
}

// EncodeImage encodes raw image bytes for text-safe offline buffering.
func EncodeImage(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeImage reverses EncodeImage, reproducing the original bytes exactly.
func DecodeImage(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return b, nil
}
