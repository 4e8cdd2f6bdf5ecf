package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrExpenseNotFound         = errors.New("expense not found")
	ErrExpenseCategoryRequired = errors.New("category is required")
	ErrDescriptionTooLong      = errors.New("description must be 500 characters or less")
)

// DateLayout is the wire and storage format of expense and income dates.
const DateLayout = "2006-01-02"

// UncategorizedLabel is shown for expenses with an empty category.
const UncategorizedLabel = "Sin categoría"

type Expense struct {
	ID          int64           `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Day returns the expense date as YYYY-MM-DD.
func (e *Expense) Day() string {
	return e.Date.Format(DateLayout)
}

// ExpenseFilter narrows a history listing. Zero values match everything.
type ExpenseFilter struct {
	Query string
	Date  *time.Time
	Month string
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) (*Expense, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*Expense, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Expense, error)
	ListByMonth(ctx context.Context, userID uuid.UUID, month string) ([]*Expense, error)
	Update(ctx context.Context, expense *Expense) (*Expense, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	CountByCategory(ctx context.Context, userID uuid.UUID, category string) (int64, error)
}
