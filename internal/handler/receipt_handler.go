package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
)

// ReceiptHandler handles receipt extraction requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ReceiptImageResponse points at the stored receipt thumbnail
type ReceiptImageResponse struct {
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// ExtractReceiptResponse is the data read from a receipt. Fields that could
// not be read are null and needsManualEntry is set.
type ExtractReceiptResponse struct {
	Amount           *string               `json:"amount"`
	Date             *string               `json:"date"`
	Description      *string               `json:"description"`
	NeedsManualEntry bool                  `json:"needsManualEntry"`
	Receipt          *ReceiptImageResponse `json:"receipt,omitempty"`
}

// ExtractReceipt godoc
// @Summary Extract expense data from a receipt
// @Description Reads amount, date and description from a receipt photo. The result pre-fills the expense form and is never saved on its own.
// @Tags receipts
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Receipt image (JPEG, PNG or WebP, max 10MB)"
// @Success 200 {object} ExtractReceiptResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 413 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /receipts/extract [post]
func (h *ReceiptHandler) ExtractReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)

	if h.receiptService == nil || !h.receiptService.IsEnabled() {
		return NewServiceUnavailableError(c, "Receipt extraction is disabled (no extraction model configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}
	if file.Size > service.MaxReceiptSize {
		return NewPayloadTooLargeError(c, service.ErrReceiptTooLarge.Error())
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	// One byte past the limit is enough to reject oversized bodies
	data, err := io.ReadAll(io.LimitReader(src, service.MaxReceiptSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	result, err := h.receiptService.Extract(c.Request().Context(), userID, data, file.Filename)
	if err != nil {
		return handleServiceError(c, err, "extract receipt")
	}

	resp := ExtractReceiptResponse{
		Date:             result.Date,
		Description:      result.Description,
		NeedsManualEntry: result.NeedsManualEntry,
	}
	if result.Amount != nil {
		amount := result.Amount.StringFixed(2)
		resp.Amount = &amount
	}
	if result.Receipt != nil {
		resp.Receipt = &ReceiptImageResponse{ID: result.Receipt.ID, ThumbnailURL: result.Receipt.ThumbnailURL}
	}

	log.Info().
		Str("user_id", userID.String()).
		Bool("needs_manual_entry", resp.NeedsManualEntry).
		Msg("Receipt extracted")

	return c.JSON(http.StatusOK, resp)
}
