package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/testutil"
)

// createTestImage creates a test image of the specified size and format
func createTestImage(width, height int, format string) ([]byte, string) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	var buf bytes.Buffer
	var filename string

	switch format {
	case "png":
		png.Encode(&buf, img)
		filename = "receipt.png"
	default:
		jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		filename = "receipt.jpg"
	}

	return buf.Bytes(), filename
}

func ptr[T any](v T) *T { return &v }

func completeExtraction() domain.ExtractedData {
	return domain.ExtractedData{
		Amount:      ptr(decimal.RequireFromString("15.50")),
		Date:        ptr("2024-03-01"),
		Description: ptr("Café en Starbucks"),
	}
}

func TestValidateReceipt(t *testing.T) {
	svc := NewReceiptService(&testutil.MockExtractor{}, nil)
	jpg, jpgName := createTestImage(100, 100, "jpeg")
	pngData, pngName := createTestImage(100, 100, "png")
	small, smallName := createTestImage(40, 100, "png")

	tests := []struct {
		name     string
		data     []byte
		filename string
		wantErr  error
	}{
		{"valid jpeg", jpg, jpgName, nil},
		{"valid png", pngData, pngName, nil},
		{"too large", make([]byte, MaxReceiptSize+1), "big.jpg", ErrReceiptTooLarge},
		{"bad extension", jpg, "receipt.gif", ErrInvalidFormat},
		{"corrupt data", []byte("not an image"), "receipt.png", ErrInvalidImageData},
		{"too small", small, smallName, ErrImageTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.validateAndDecode(tt.data, tt.filename)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtract_Complete(t *testing.T) {
	extractor := &testutil.MockExtractor{Result: completeExtraction()}
	svc := NewReceiptService(extractor, nil)
	data, filename := createTestImage(120, 200, "png")

	result, err := svc.Extract(context.Background(), uuid.New(), data, filename)
	require.NoError(t, err)

	assert.False(t, result.NeedsManualEntry)
	assert.True(t, result.Amount.Equal(decimal.RequireFromString("15.5")))
	assert.Equal(t, "2024-03-01", *result.Date)
	assert.Equal(t, "Café en Starbucks", *result.Description)
	assert.Nil(t, result.Receipt)
	assert.Equal(t, "image/jpeg", extractor.MimeType)
}

func TestExtract_MissingFieldsNeedManualEntry(t *testing.T) {
	tests := []struct {
		name   string
		result domain.ExtractedData
	}{
		{"no date", domain.ExtractedData{Amount: ptr(decimal.NewFromInt(12))}},
		{"zero amount", domain.ExtractedData{Amount: ptr(decimal.Zero), Date: ptr("2024-03-01")}},
		{"unparsable date", domain.ExtractedData{Amount: ptr(decimal.NewFromInt(12)), Date: ptr("ayer")}},
		{"nothing", domain.ExtractedData{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewReceiptService(&testutil.MockExtractor{Result: tt.result}, nil)
			data, filename := createTestImage(100, 100, "jpeg")

			result, err := svc.Extract(context.Background(), uuid.New(), data, filename)
			require.NoError(t, err)
			assert.True(t, result.NeedsManualEntry)
		})
	}
}

func TestExtract_ExtractorErrorGivesNulls(t *testing.T) {
	svc := NewReceiptService(&testutil.MockExtractor{Err: errors.New("quota exceeded")}, nil)
	data, filename := createTestImage(100, 100, "jpeg")

	result, err := svc.Extract(context.Background(), uuid.New(), data, filename)
	require.NoError(t, err)
	assert.Nil(t, result.Amount)
	assert.Nil(t, result.Date)
	assert.Nil(t, result.Description)
	assert.True(t, result.NeedsManualEntry)
}

func TestExtract_NotConfigured(t *testing.T) {
	svc := NewReceiptService(nil, nil)
	data, filename := createTestImage(100, 100, "jpeg")

	_, err := svc.Extract(context.Background(), uuid.New(), data, filename)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestExtract_StoresReceiptVariants(t *testing.T) {
	repo := testutil.NewMockReceiptRepository()
	extractor := &testutil.MockExtractor{Result: completeExtraction()}
	svc := NewReceiptService(extractor, repo)
	userID := uuid.New()
	data, filename := createTestImage(2000, 400, "jpeg")

	result, err := svc.Extract(context.Background(), userID, data, filename)
	require.NoError(t, err)
	require.NotNil(t, result.Receipt)

	assert.Len(t, repo.Objects, 2)
	receiptID := uuid.MustParse(result.Receipt.ID)
	original := repo.Objects[userID.String()+"/receipts/"+receiptID.String()+"_original.jpg"]
	thumb := repo.Objects[userID.String()+"/receipts/"+receiptID.String()+"_thumb.jpg"]

	originalImg, _, err := image.Decode(bytes.NewReader(original))
	require.NoError(t, err)
	assert.Equal(t, MaxReceiptWidth, originalImg.Bounds().Dx())

	thumbImg, _, err := image.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumbImg.Bounds().Dx())
	assert.Contains(t, result.Receipt.ThumbnailURL, "_thumb.jpg")
}

func TestExtract_UploadFailureStillExtracts(t *testing.T) {
	repo := testutil.NewMockReceiptRepository()
	repo.PutErr = errors.New("bucket missing")
	svc := NewReceiptService(&testutil.MockExtractor{Result: completeExtraction()}, repo)
	data, filename := createTestImage(100, 100, "jpeg")

	result, err := svc.Extract(context.Background(), uuid.New(), data, filename)
	require.NoError(t, err)
	assert.Nil(t, result.Receipt)
	assert.False(t, result.NeedsManualEntry)
}

func TestExtract_PartialUploadIsRemoved(t *testing.T) {
	repo := testutil.NewMockReceiptRepository()
	repo.FailKeySuffix = "_thumb.jpg"
	svc := NewReceiptService(&testutil.MockExtractor{Result: completeExtraction()}, repo)
	data, filename := createTestImage(100, 100, "png")

	result, err := svc.Extract(context.Background(), uuid.New(), data, filename)
	require.NoError(t, err)
	assert.Nil(t, result.Receipt)
	assert.Empty(t, repo.Objects)
	require.Len(t, repo.Removed, 1)
	assert.True(t, strings.HasSuffix(repo.Removed[0], "_original.jpg"))
}
