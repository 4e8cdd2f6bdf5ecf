package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
)

const budgetColumns = `id, user_id, month, category, amount, created_at, updated_at`

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

// Upsert creates the budget or replaces the amount of the existing (month, category) row
func (r *BudgetRepository) Upsert(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(budget.Amount)
	if err != nil {
		return nil, err
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO budgets (user_id, month, category, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, month, category)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
		RETURNING `+budgetColumns,
		budget.UserID, budget.Month, budget.Category, amount)
	return scanBudget(row)
}

// GetByID retrieves a budget owned by userID
func (r *BudgetRepository) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Budget, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	return scanBudget(row)
}

// GetByMonthCategory retrieves the budget for a month and category.
// Inside a transaction the row is locked until commit.
func (r *BudgetRepository) GetByMonthCategory(ctx context.Context, userID uuid.UUID, month, category string) (*domain.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1 AND month = $2 AND category = $3`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	return scanBudget(conn(ctx, r.pool).QueryRow(ctx, query, userID, month, category))
}

// ListByUser returns every budget of userID, latest month first
func (r *BudgetRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Budget, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY month DESC, category`, userID)
	if err != nil {
		return nil, err
	}
	return collectBudgets(rows)
}

// ListByMonth returns the budgets of userID for one month
func (r *BudgetRepository) ListByMonth(ctx context.Context, userID uuid.UUID, month string) ([]*domain.Budget, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND month = $2 ORDER BY category`, userID, month)
	if err != nil {
		return nil, err
	}
	return collectBudgets(rows)
}

// UpdateAmount sets the amount of an owned budget
func (r *BudgetRepository) UpdateAmount(ctx context.Context, userID uuid.UUID, id int64, amount decimal.Decimal) (*domain.Budget, error) {
	num, err := decimalToPgNumeric(amount)
	if err != nil {
		return nil, err
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE budgets SET amount = $3, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING `+budgetColumns, userID, id, num)
	return scanBudget(row)
}

// Delete removes an owned budget
func (r *BudgetRepository) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var (
		b      domain.Budget
		amount pgtype.Numeric
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Month, &b.Category, &amount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	b.Amount = pgNumericToDecimal(amount)
	return &b, nil
}

func collectBudgets(rows pgx.Rows) ([]*domain.Budget, error) {
	defer rows.Close()
	result := []*domain.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}
