package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")
	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name exceeds maximum length")
	ErrInvalidAmount = errors.New("amount must be greater than zero, below 10000000000, with at most 2 decimals")
	ErrInvalidDate   = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidMonth  = errors.New("month must be in YYYY-MM format")
	ErrNotConfigured = errors.New("feature not configured")
)

// Validation constants
const (
	MaxCategoryNameLength = 50
	MaxDescriptionLength  = 500
	MaxSourceLength       = 100
)

// Amounts are stored as NUMERIC(12,2)
const AmountScale = 2

// MaxAmount is the smallest amount the columns cannot hold
var MaxAmount = decimal.New(1, 10)

// ValidAmount reports whether d can be stored without rounding or overflow
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(MaxAmount) && d.Equal(d.Round(AmountScale))
}
