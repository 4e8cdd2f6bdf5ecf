package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
)

const expenseColumns = `id, user_id, amount, category, date, description, created_at`

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// Create inserts a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, err
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO expenses (user_id, amount, category, date, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+expenseColumns,
		expense.UserID, amount, expense.Category, timeToPgDate(expense.Date), expense.Description)
	return scanExpense(row)
}

// GetByID retrieves an expense owned by userID
func (r *ExpenseRepository) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Expense, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = $1 AND id = $2`, userID, id)
	return scanExpense(row)
}

// ListByUser returns every expense of userID, newest first
func (r *ExpenseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Expense, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = $1 ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// ListByMonth returns the expenses of userID dated within a YYYY-MM month
func (r *ExpenseRepository) ListByMonth(ctx context.Context, userID uuid.UUID, month string) ([]*domain.Expense, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE user_id = $1 AND to_char(date, 'YYYY-MM') = $2
		ORDER BY date DESC, id DESC`, userID, month)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// Update replaces amount, category, date and description of an owned expense
func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, err
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE expenses SET amount = $3, category = $4, date = $5, description = $6
		WHERE user_id = $1 AND id = $2
		RETURNING `+expenseColumns,
		expense.UserID, expense.ID, amount, expense.Category, timeToPgDate(expense.Date), expense.Description)
	return scanExpense(row)
}

// Delete removes an owned expense
func (r *ExpenseRepository) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM expenses WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// CountByCategory counts the expenses of userID filed under category, ignoring case
func (r *ExpenseRepository) CountByCategory(ctx context.Context, userID uuid.UUID, category string) (int64, error) {
	var count int64
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM expenses WHERE user_id = $1 AND lower(btrim(category)) = $2`,
		userID, domain.CategoryKey(category)).Scan(&count)
	return count, err
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e      domain.Expense
		amount pgtype.Numeric
		date   pgtype.Date
	)
	err := row.Scan(&e.ID, &e.UserID, &amount, &e.Category, &date, &e.Description, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	e.Amount = pgNumericToDecimal(amount)
	e.Date = pgDateToTime(date)
	return &e, nil
}

func collectExpenses(rows pgx.Rows) ([]*domain.Expense, error) {
	defer rows.Close()
	result := []*domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
