package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dafibh/gastify/gastify-backend/internal/aggregate"
	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/util"
	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
)

// ExpenseService handles expense-related business logic
type ExpenseService struct {
	eventSink
	expenseRepo domain.ExpenseRepository
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(expenseRepo domain.ExpenseRepository) *ExpenseService {
	return &ExpenseService{expenseRepo: expenseRepo}
}

// ExpenseInput holds the editable fields of an expense
type ExpenseInput struct {
	Amount      decimal.Decimal
	Category    string
	Date        string
	Description string
}

// validate checks the input and returns the normalized expense fields
func (in ExpenseInput) validate() (*domain.Expense, error) {
	if !domain.ValidAmount(in.Amount) {
		return nil, domain.ErrInvalidAmount
	}

	date, err := util.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, domain.ErrExpenseCategoryRequired
	}

	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	return &domain.Expense{
		Amount:      in.Amount,
		Category:    category,
		Date:        date,
		Description: description,
	}, nil
}

// ListExpenses returns the user's expenses, newest first, narrowed by filter
func (s *ExpenseService) ListExpenses(ctx context.Context, userID uuid.UUID, filter domain.ExpenseFilter) ([]*domain.Expense, error) {
	var (
		expenses []*domain.Expense
		err      error
	)
	if filter.Month != "" {
		if _, err := util.ParseMonth(filter.Month); err != nil {
			return nil, err
		}
		expenses, err = s.expenseRepo.ListByMonth(ctx, userID, filter.Month)
	} else {
		expenses, err = s.expenseRepo.ListByUser(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	day := ""
	if filter.Date != nil {
		day = filter.Date.Format(domain.DateLayout)
	}
	return aggregate.FilterExpenses(expenses, filter.Query, day), nil
}

// GetExpense retrieves one of the user's expenses
func (s *ExpenseService) GetExpense(ctx context.Context, userID uuid.UUID, id int64) (*domain.Expense, error) {
	return s.expenseRepo.GetByID(ctx, userID, id)
}

// CreateExpense validates and stores a new expense
func (s *ExpenseService) CreateExpense(ctx context.Context, userID uuid.UUID, input ExpenseInput) (*domain.Expense, error) {
	expense, err := input.validate()
	if err != nil {
		return nil, err
	}
	expense.UserID = userID

	created, err := s.expenseRepo.Create(ctx, expense)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create expense")
		return nil, err
	}

	s.publishEvent(userID, websocket.ExpenseCreated(created))
	return created, nil
}

// UpdateExpense replaces amount, category, date and description of an expense
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID uuid.UUID, id int64, input ExpenseInput) (*domain.Expense, error) {
	expense, err := input.validate()
	if err != nil {
		return nil, err
	}

	if _, err := s.expenseRepo.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}
	expense.ID = id
	expense.UserID = userID

	updated, err := s.expenseRepo.Update(ctx, expense)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Int64("expense_id", id).Msg("Failed to update expense")
		return nil, err
	}

	s.publishEvent(userID, websocket.ExpenseUpdated(updated))
	return updated, nil
}

// DeleteExpense removes one of the user's expenses
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.expenseRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publishEvent(userID, websocket.ExpenseDeleted(map[string]int64{"id": id}))
	return nil
}
