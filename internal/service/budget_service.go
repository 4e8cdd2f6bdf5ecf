package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dafibh/gastify/gastify-backend/internal/aggregate"
	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/util"
	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
)

// BudgetService handles monthly budgets
type BudgetService struct {
	eventSink
	budgetRepo  domain.BudgetRepository
	expenseRepo domain.ExpenseRepository
	categories  *CategoryService
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(budgetRepo domain.BudgetRepository, expenseRepo domain.ExpenseRepository, categories *CategoryService) *BudgetService {
	return &BudgetService{
		budgetRepo:  budgetRepo,
		expenseRepo: expenseRepo,
		categories:  categories,
	}
}

// ListBudgets returns the user's budgets, limited to month when it is set
func (s *BudgetService) ListBudgets(ctx context.Context, userID uuid.UUID, month string) ([]*domain.Budget, error) {
	if month == "" {
		return s.budgetRepo.ListByUser(ctx, userID)
	}
	if _, err := util.ParseMonth(month); err != nil {
		return nil, err
	}
	return s.budgetRepo.ListByMonth(ctx, userID, month)
}

// SetBudget creates or replaces the budget of a month and category.
// The category is General or one of the user's categories.
func (s *BudgetService) SetBudget(ctx context.Context, userID uuid.UUID, month, category string, amount decimal.Decimal) (*domain.Budget, error) {
	if _, err := util.ParseMonth(month); err != nil {
		return nil, err
	}
	if !domain.ValidAmount(amount) {
		return nil, domain.ErrInvalidAmount
	}

	name, err := s.resolveCategory(ctx, userID, category)
	if err != nil {
		return nil, err
	}

	budget, err := s.budgetRepo.Upsert(ctx, &domain.Budget{
		UserID:   userID,
		Month:    month,
		Category: name,
		Amount:   amount,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Str("month", month).Msg("Failed to set budget")
		return nil, err
	}

	s.publishEvent(userID, websocket.BudgetUpdated(budget))
	return budget, nil
}

// resolveCategory returns the stored spelling of a budget category
func (s *BudgetService) resolveCategory(ctx context.Context, userID uuid.UUID, category string) (string, error) {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, domain.GeneralBudgetCategory) {
		return domain.GeneralBudgetCategory, nil
	}
	if category == "" {
		return "", domain.ErrUnknownBudgetCategory
	}

	categories, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, category) {
			return c.Name, nil
		}
	}
	return "", domain.ErrUnknownBudgetCategory
}

// DeleteBudget removes one of the user's budgets
func (s *BudgetService) DeleteBudget(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.budgetRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publishEvent(userID, websocket.BudgetDeleted(map[string]int64{"id": id}))
	return nil
}

// MonthSummary reports spending against every budget of a month
func (s *BudgetService) MonthSummary(ctx context.Context, userID uuid.UUID, month string) (*domain.MonthBudgetSummary, error) {
	if _, err := util.ParseMonth(month); err != nil {
		return nil, err
	}

	budgets, err := s.budgetRepo.ListByMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.ListByMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	spentByCategory := aggregate.SpentByCategory(expenses, month)
	summary := &domain.MonthBudgetSummary{
		Month:               month,
		Spent:               aggregate.MonthlyTotal(expenses, month),
		Categories:          []*domain.BudgetProgress{},
		AvailableCategories: []domain.Category{},
	}

	budgeted := make(map[string]bool)
	for _, b := range budgets {
		if b.IsGeneral() {
			summary.General = aggregate.Progress(b, summary.Spent)
			continue
		}
		key := domain.CategoryKey(b.Category)
		budgeted[key] = true
		summary.Categories = append(summary.Categories, aggregate.Progress(b, spentByCategory[key]))
	}

	for _, c := range categories {
		if !budgeted[domain.CategoryKey(c.Name)] {
			summary.AvailableCategories = append(summary.AvailableCategories, c)
		}
	}

	return summary, nil
}
