package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
	"github.com/dafibh/gastify/gastify-backend/internal/validator"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://gastify.app/errors/validation"
	ErrorTypeNotFound     = "https://gastify.app/errors/not-found"
	ErrorTypeUnauthorized = "https://gastify.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://gastify.app/errors/forbidden"
	ErrorTypeConflict     = "https://gastify.app/errors/conflict"
	ErrorTypeTooLarge     = "https://gastify.app/errors/payload-too-large"
	ErrorTypeUnavailable  = "https://gastify.app/errors/unavailable"
	ErrorTypeInternal     = "https://gastify.app/errors/internal"
)

// problemTitles overrides the status text where clients show the title
var problemTitles = map[string]string{
	ErrorTypeValidation: "Validation Error",
}

func writeProblem(c echo.Context, status int, errorType, detail string, fields []ValidationError) error {
	title, ok := problemTitles[errorType]
	if !ok {
		title = http.StatusText(status)
	}
	return c.JSON(status, ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   fields,
	})
}

// NewValidationError writes a 400 listing the offending fields
func NewValidationError(c echo.Context, detail string, fields []ValidationError) error {
	return writeProblem(c, http.StatusBadRequest, ErrorTypeValidation, detail, fields)
}

func NewNotFoundError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusNotFound, ErrorTypeNotFound, detail, nil)
}

func NewUnauthorizedError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, detail, nil)
}

func NewForbiddenError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusForbidden, ErrorTypeForbidden, detail, nil)
}

func NewConflictError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusConflict, ErrorTypeConflict, detail, nil)
}

func NewPayloadTooLargeError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusRequestEntityTooLarge, ErrorTypeTooLarge, detail, nil)
}

// NewServiceUnavailableError is returned by features that are not configured
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, detail, nil)
}

func NewInternalError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusInternalServerError, ErrorTypeInternal, detail, nil)
}

// bindAndValidate binds the request body and runs the registered validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(req); err != nil {
		messages := validator.Messages(err)
		if messages == nil {
			return NewValidationError(c, err.Error(), nil)
		}
		errs := make([]ValidationError, 0, len(messages))
		for _, m := range messages {
			errs = append(errs, ValidationError{Field: m.Field, Message: m.Message})
		}
		return NewValidationError(c, "Validation failed", errs)
	}
	return nil
}

// fieldErrors maps input errors to the request field they belong to
var fieldErrors = []struct {
	err   error
	field string
}{
	{domain.ErrInvalidAmount, "amount"},
	{domain.ErrInvalidDate, "date"},
	{domain.ErrInvalidMonth, "month"},
	{domain.ErrExpenseCategoryRequired, "category"},
	{domain.ErrUnknownBudgetCategory, "category"},
	{domain.ErrDescriptionTooLong, "description"},
	{domain.ErrIncomeSourceRequired, "source"},
	{domain.ErrIncomeSourceTooLong, "source"},
	{domain.ErrNameRequired, "name"},
	{domain.ErrNameTooLong, "name"},
	{domain.ErrReservedCategoryName, "name"},
	{domain.ErrInvalidColor, "color"},
	{domain.ErrEmailRequired, "email"},
	{domain.ErrPasswordTooShort, "password"},
	{service.ErrInvalidFormat, "file"},
	{service.ErrImageTooSmall, "file"},
	{service.ErrInvalidImageData, "file"},
}

var notFoundErrors = []error{
	domain.ErrNotFound,
	domain.ErrExpenseNotFound,
	domain.ErrIncomeNotFound,
	domain.ErrBudgetNotFound,
	domain.ErrCategoryNotFound,
}

// handleServiceError writes the Problem Details response for an error
// returned by a service. Unknown errors are logged and reported as 500.
func handleServiceError(c echo.Context, err error, action string) error {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: fe.field, Message: fe.err.Error()},
			})
		}
	}
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf) {
			return NewNotFoundError(c, nf.Error())
		}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, service.ErrReceiptTooLarge):
		return NewPayloadTooLargeError(c, err.Error())
	case errors.Is(err, domain.ErrCategoryAlreadyExists),
		errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrPredefinedCategoryImmutable),
		errors.Is(err, domain.ErrPredefinedCategoryDelete),
		errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return NewUnauthorizedError(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "Session expired or invalid")
	case errors.Is(err, domain.ErrNotConfigured):
		return NewServiceUnavailableError(c, err.Error())
	}

	log.Error().
		Err(err).
		Str("user_id", middleware.GetUserID(c).String()).
		Str("path", c.Request().URL.Path).
		Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}
