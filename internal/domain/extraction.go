package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExtractedData is a best-effort guess read from a receipt. Any field may be nil.
type ExtractedData struct {
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
}

// Complete reports whether both amount and date were found.
func (d ExtractedData) Complete() bool {
	return d.Amount != nil && d.Date != nil
}

// Extractor reads expense data out of an image.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (ExtractedData, error)
}
