package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrBudgetNotFound        = errors.New("budget not found")
	ErrUnknownBudgetCategory = errors.New("budget category must be General or an existing category")
)

// GeneralBudgetCategory is the reserved category holding the month's overall cap.
const GeneralBudgetCategory = "General"

// MonthLayout is the format of budget months.
const MonthLayout = "2006-01"

type Budget struct {
	ID        int64           `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Month     string          `json:"month"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// IsGeneral reports whether the budget is the month's overall cap.
func (b *Budget) IsGeneral() bool {
	return strings.EqualFold(b.Category, GeneralBudgetCategory)
}

// BudgetStatus buckets spending progress against a budget.
type BudgetStatus string

const (
	BudgetStatusOK       BudgetStatus = "ok"
	BudgetStatusWarning  BudgetStatus = "warning"
	BudgetStatusExceeded BudgetStatus = "exceeded"
)

// BudgetProgress is the spent/remaining view of one budget.
type BudgetProgress struct {
	Budget     *Budget         `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
	Status     BudgetStatus    `json:"status"`
}

// MonthBudgetSummary groups the General budget, category budgets and the
// categories still without a budget for one month.
type MonthBudgetSummary struct {
	Month               string            `json:"month"`
	General             *BudgetProgress   `json:"general"`
	Spent               decimal.Decimal   `json:"spent"`
	Categories          []*BudgetProgress `json:"categories"`
	AvailableCategories []Category        `json:"availableCategories"`
}

type BudgetRepository interface {
	Upsert(ctx context.Context, budget *Budget) (*Budget, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*Budget, error)
	// GetByMonthCategory locks the row when called inside a transaction.
	GetByMonthCategory(ctx context.Context, userID uuid.UUID, month, category string) (*Budget, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Budget, error)
	ListByMonth(ctx context.Context, userID uuid.UUID, month string) ([]*Budget, error)
	UpdateAmount(ctx context.Context, userID uuid.UUID, id int64, amount decimal.Decimal) (*Budget, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}

// Transactor runs fn in a single database transaction. Repositories called with
// the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
