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

const incomeColumns = `id, user_id, amount, source, date, description, created_at`

// IncomeRepository implements domain.IncomeRepository using PostgreSQL
type IncomeRepository struct {
	pool *pgxpool.Pool
}

// NewIncomeRepository creates a new IncomeRepository
func NewIncomeRepository(pool *pgxpool.Pool) *IncomeRepository {
	return &IncomeRepository{pool: pool}
}

// Create inserts a new income
func (r *IncomeRepository) Create(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	amount, err := decimalToPgNumeric(income.Amount)
	if err != nil {
		return nil, err
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO income (user_id, amount, source, date, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+incomeColumns,
		income.UserID, amount, income.Source, timeToPgDate(income.Date), income.Description)
	return scanIncome(row)
}

// GetByID retrieves an income owned by userID
func (r *IncomeRepository) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Income, error) {
	row := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+incomeColumns+` FROM income WHERE user_id = $1 AND id = $2`, userID, id)
	return scanIncome(row)
}

// ListByUser returns every income of userID, newest first
func (r *IncomeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Income, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+incomeColumns+` FROM income WHERE user_id = $1 ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Income{}
	for rows.Next() {
		i, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	return result, rows.Err()
}

// Update replaces amount, source, date and description of an owned income
func (r *IncomeRepository) Update(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	amount, err := decimalToPgNumeric(income.Amount)
	if err != nil {
		return nil, err
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE income SET amount = $3, source = $4, date = $5, description = $6
		WHERE user_id = $1 AND id = $2
		RETURNING `+incomeColumns,
		income.UserID, income.ID, amount, income.Source, timeToPgDate(income.Date), income.Description)
	return scanIncome(row)
}

// Delete removes an owned income
func (r *IncomeRepository) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM income WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIncomeNotFound
	}
	return nil
}

func scanIncome(row pgx.Row) (*domain.Income, error) {
	var (
		i      domain.Income
		amount pgtype.Numeric
		date   pgtype.Date
	)
	err := row.Scan(&i.ID, &i.UserID, &amount, &i.Source, &date, &i.Description, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIncomeNotFound
		}
		return nil, err
	}
	i.Amount = pgNumericToDecimal(amount)
	i.Date = pgDateToTime(date)
	return &i, nil
}
