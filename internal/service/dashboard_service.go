package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dafibh/gastify/gastify-backend/internal/aggregate"
	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/util"
)

// DashboardService builds the dashboard and category detail views
type DashboardService struct {
	expenseRepo domain.ExpenseRepository
	budgetRepo  domain.BudgetRepository
	categories  *CategoryService
	now         func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	expenseRepo domain.ExpenseRepository,
	budgetRepo domain.BudgetRepository,
	categories *CategoryService,
) *DashboardService {
	return &DashboardService{
		expenseRepo: expenseRepo,
		budgetRepo:  budgetRepo,
		categories:  categories,
		now:         time.Now,
	}
}

// resolveMonth defaults to the current month and validates the rest
func (s *DashboardService) resolveMonth(month string) (string, error) {
	if month == "" {
		return util.CurrentMonth(s.now()), nil
	}
	if _, err := util.ParseMonth(month); err != nil {
		return "", err
	}
	return month, nil
}

// GetSummary returns the dashboard for month. A non-empty day adds that day's breakdown.
func (s *DashboardService) GetSummary(ctx context.Context, userID uuid.UUID, month, day string) (*domain.DashboardSummary, error) {
	month, err := s.resolveMonth(month)
	if err != nil {
		return nil, err
	}
	if day != "" {
		if _, err := util.ParseDate(day); err != nil {
			return nil, err
		}
	}

	var (
		expenses   []*domain.Expense
		general    *domain.Budget
		categories []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.expenseRepo.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		b, err := s.budgetRepo.GetByMonthCategory(gctx, userID, month, domain.GeneralBudgetCategory)
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return nil
		}
		general = b
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories.ListCategories(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	calendar, err := aggregate.Calendar(expenses, month)
	if err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		Month:         month,
		GeneralBudget: general,
		MonthlySpent:  aggregate.MonthlyTotal(expenses, month),
		AllTimeTotal:  aggregate.TotalAmount(expenses),
		Recent:        recentExpenses(expenses, categories),
		ByCategory:    aggregate.CategoryBars(expenses, month, categories),
		Calendar:      calendar,
	}

	if general != nil {
		remaining := general.Amount.Sub(summary.MonthlySpent)
		summary.Remaining = &remaining
		summary.BudgetExceeded = remaining.IsNegative()
	}

	if day != "" {
		breakdown := aggregate.DayBreakdown(expenses, day, categories)
		summary.SelectedDay = &breakdown
	}

	return summary, nil
}

// GetCategoryDetail returns one category's total and daily series for month
func (s *DashboardService) GetCategoryDetail(ctx context.Context, userID uuid.UUID, categoryID, month string) (*domain.CategoryDetail, error) {
	month, err := s.resolveMonth(month)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenseRepo.ListByMonth(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	matching := make([]*domain.Expense, 0, len(expenses))
	for _, e := range expenses {
		if domain.CategoryKey(e.Category) == domain.CategoryKey(category.Name) {
			matching = append(matching, e)
		}
	}

	daily, err := aggregate.DailySeries(matching, month)
	if err != nil {
		return nil, err
	}

	return &domain.CategoryDetail{
		Category: *category,
		Month:    month,
		Total:    aggregate.TotalAmount(matching),
		Daily:    daily,
	}, nil
}

// recentExpenses takes the newest expenses and attaches their category color
func recentExpenses(expenses []*domain.Expense, categories []domain.Category) []domain.RecentExpense {
	n := min(len(expenses), domain.RecentExpensesLimit)
	recent := make([]domain.RecentExpense, n)
	for i := range n {
		recent[i] = domain.RecentExpense{
			Expense: expenses[i],
			Color:   domain.ColorFor(categories, expenses[i].Category),
		}
	}
	return recent
}
