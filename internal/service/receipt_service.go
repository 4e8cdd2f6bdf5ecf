package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/repository/storage"
	"github.com/dafibh/gastify/gastify-backend/internal/util"
)

const (
	MaxReceiptSize     = 10 * 1024 * 1024 // 10MB
	MinReceiptWidth    = 50
	MinReceiptHeight   = 50
	MaxReceiptWidth    = 1600
	ThumbnailWidth     = 200
	JPEGQuality        = 85
	ReceiptURLValidFor = 15 * time.Minute
)

var (
	ErrReceiptTooLarge  = errors.New("file too large. Maximum size is 10MB")
	ErrInvalidFormat    = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrImageTooSmall    = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData = errors.New("invalid image data")
)

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptImage points at the stored copy of a receipt
type ReceiptImage struct {
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// ReceiptExtraction is what was read from a receipt. Nil fields must be
// entered by hand.
type ReceiptExtraction struct {
	domain.ExtractedData
	NeedsManualEntry bool          `json:"needsManualEntry"`
	Receipt          *ReceiptImage `json:"receipt,omitempty"`
}

// ReceiptService validates receipt images, keeps a copy when storage is
// configured and asks the extractor for the expense fields.
type ReceiptService struct {
	extractor domain.Extractor
	storage   storage.ReceiptRepository
}

// NewReceiptService creates a new ReceiptService. storage may be nil.
func NewReceiptService(extractor domain.Extractor, storage storage.ReceiptRepository) *ReceiptService {
	return &ReceiptService{extractor: extractor, storage: storage}
}

// IsEnabled indicates whether an extractor is configured
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.extractor != nil
}

// validateAndDecode validates the image and returns the decoded image
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrImageTooSmall
	}

	return img, nil
}

// encodeJPEG resizes img to at most maxWidth pixels wide and encodes it
func encodeJPEG(img image.Image, maxWidth int) ([]byte, error) {
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Extract reads amount, date and description from a receipt image
func (s *ReceiptService) Extract(ctx context.Context, userID uuid.UUID, data []byte, filename string) (*ReceiptExtraction, error) {
	if !s.IsEnabled() {
		return nil, domain.ErrNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	normalized, err := encodeJPEG(img, MaxReceiptWidth)
	if err != nil {
		return nil, err
	}

	result := &ReceiptExtraction{}
	if s.storage != nil {
		result.Receipt = s.store(ctx, userID, img, normalized)
	}

	extracted, err := s.extractor.Extract(ctx, normalized, "image/jpeg")
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Receipt extraction failed")
		extracted = domain.ExtractedData{}
	}

	result.ExtractedData = sanitizeExtraction(extracted)
	result.NeedsManualEntry = !result.Complete()
	return result, nil
}

// store uploads the normalized receipt and its thumbnail. Failures are logged
// and leave the extraction without a stored copy.
func (s *ReceiptService) store(ctx context.Context, userID uuid.UUID, img image.Image, normalized []byte) *ReceiptImage {
	receiptID := uuid.New()

	thumb, err := encodeJPEG(img, ThumbnailWidth)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to build receipt thumbnail")
		return nil
	}

	variants := []struct {
		name string
		data []byte
	}{
		{"original", normalized},
		{"thumb", thumb},
	}

	var uploaded []string
	for _, v := range variants {
		objectPath := storage.ReceiptObjectPath(userID, receiptID, v.name)
		if err := s.storage.Put(ctx, objectPath, v.data, "image/jpeg"); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Str("variant", v.name).Msg("Failed to upload receipt")
			s.cleanup(ctx, uploaded)
			return nil
		}
		uploaded = append(uploaded, objectPath)
	}

	thumbPath := storage.ReceiptObjectPath(userID, receiptID, "thumb")
	url, err := s.storage.SignedURL(ctx, thumbPath, ReceiptURLValidFor)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to sign receipt URL")
		return nil
	}

	return &ReceiptImage{ID: receiptID.String(), ThumbnailURL: url}
}

// cleanup removes variants uploaded before a failure
func (s *ReceiptService) cleanup(ctx context.Context, objectPaths []string) {
	if len(objectPaths) == 0 {
		return
	}
	if err := s.storage.Remove(ctx, objectPaths...); err != nil {
		log.Warn().Err(err).Strs("keys", objectPaths).Msg("Failed to remove partial receipt upload")
	}
}

// sanitizeExtraction turns zero amounts, blank text and unparsable dates into nil
func sanitizeExtraction(d domain.ExtractedData) domain.ExtractedData {
	var out domain.ExtractedData
	if d.Amount != nil && d.Amount.IsPositive() {
		amount := d.Amount.Round(2)
		out.Amount = &amount
	}
	if d.Date != nil {
		date := strings.TrimSpace(*d.Date)
		if _, err := util.ParseDate(date); err == nil {
			out.Date = &date
		}
	}
	if d.Description != nil {
		description := strings.TrimSpace(*d.Description)
		if description != "" {
			out.Description = &description
		}
	}
	return out
}
