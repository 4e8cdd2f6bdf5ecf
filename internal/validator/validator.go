// Package validator checks request bodies with go-playground/validator and
// plugs into echo as its Validator.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
)

// RequestValidator implements echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

// New creates a RequestValidator with the yearmonth, ymd, notblank and
// positive rules registered. Field names are reported by their json tag.
func New() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// "2024-12"
	_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		return parses(fl.Field().String(), "2006-01")
	})

	// "2024-12-31"
	_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		return parses(fl.Field().String(), "2006-01-02")
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// decimal string that fits a NUMERIC(12,2) amount
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && domain.ValidAmount(d)
	})

	return &RequestValidator{validate: v}
}

func parses(s, layout string) bool {
	_, err := time.Parse(layout, s)
	return err == nil && len(s) == len(layout)
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// FieldMessage is one failed field with a readable message
type FieldMessage struct {
	Field   string
	Message string
}

// Messages flattens a validation error. Other errors yield nil.
func Messages(err error) []FieldMessage {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldMessage, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldMessage{Field: e.Field(), Message: fieldErrorToString(e)})
	}
	return out
}

func fieldErrorToString(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "yearmonth":
		return fmt.Sprintf("%s must be in YYYY-MM format", e.Field())
	case "ymd":
		return fmt.Sprintf("%s must be in YYYY-MM-DD format", e.Field())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", e.Field())
	case "positive":
		return fmt.Sprintf("%s must be a number greater than zero, below 10000000000, with at most 2 decimals", e.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
