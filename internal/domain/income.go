package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrIncomeNotFound       = errors.New("income not found")
	ErrIncomeSourceRequired = errors.New("source is required")
	ErrIncomeSourceTooLong  = errors.New("source must be 100 characters or less")
)

// IncomeSources are the suggested income sources. Any other non-empty source is accepted.
var IncomeSources = []string{"Salario", "Freelance", "Ventas", "Regalo", "Inversiones", "Otro"}

type Income struct {
	ID          int64           `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Month returns the YYYY-MM month the income is counted in.
func (i *Income) Month() string {
	return i.Date.Format(MonthLayout)
}

type IncomeRepository interface {
	Create(ctx context.Context, income *Income) (*Income, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*Income, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Income, error)
	Update(ctx context.Context, income *Income) (*Income, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}
