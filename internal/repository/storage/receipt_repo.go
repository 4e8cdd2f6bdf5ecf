package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReceiptRepository stores receipt images
type ReceiptRepository interface {
	// Put writes body under key, replacing any existing object
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Remove deletes keys. Missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
	// SignedURL returns a temporary GET URL for key
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ReceiptObjectPath returns the object key of one receipt variant:
// <user>/receipts/<receipt>_<variant>.jpg
func ReceiptObjectPath(userID, receiptID uuid.UUID, variant string) string {
	return fmt.Sprintf("%s/receipts/%s_%s.jpg", userID, receiptID, variant)
}
