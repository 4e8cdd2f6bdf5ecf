package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/localstore"
	"github.com/dafibh/gastify/gastify-backend/internal/testutil"
)

type budgetFixture struct {
	svc        *BudgetService
	budgets    *testutil.MockBudgetRepository
	expenses   *testutil.MockExpenseRepository
	categories *CategoryService
	userID     uuid.UUID
}

func newBudgetFixture() *budgetFixture {
	budgets := testutil.NewMockBudgetRepository()
	expenses := testutil.NewMockExpenseRepository()
	categories := NewCategoryService(localstore.NewMemoryStorage(), expenses)
	return &budgetFixture{
		svc:        NewBudgetService(budgets, expenses, categories),
		budgets:    budgets,
		expenses:   expenses,
		categories: categories,
		userID:     uuid.New(),
	}
}

func TestSetBudget_General(t *testing.T) {
	f := newBudgetFixture()
	publisher := &testutil.RecordingPublisher{}
	f.svc.SetEventPublisher(publisher)

	budget, err := f.svc.SetBudget(context.Background(), f.userID, "2024-03", "general", decimal.NewFromInt(1000))
	require.NoError(t, err)

	assert.Equal(t, domain.GeneralBudgetCategory, budget.Category)
	assert.True(t, budget.IsGeneral())
	assert.Equal(t, []string{"budget.updated"}, publisher.Types())
}

func TestSetBudget_UpsertsSameMonthCategory(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()

	first, err := f.svc.SetBudget(ctx, f.userID, "2024-03", "Comida", decimal.NewFromInt(200))
	require.NoError(t, err)
	second, err := f.svc.SetBudget(ctx, f.userID, "2024-03", "comida", decimal.NewFromInt(300))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Comida", second.Category)
	assert.True(t, second.Amount.Equal(decimal.NewFromInt(300)))
	assert.Len(t, f.budgets.Budgets, 1)
}

func TestSetBudget_Validation(t *testing.T) {
	tests := []struct {
		name     string
		month    string
		category string
		amount   decimal.Decimal
		wantErr  error
	}{
		{"bad month", "2024-13", "General", decimal.NewFromInt(1), domain.ErrInvalidMonth},
		{"short month", "24-03", "General", decimal.NewFromInt(1), domain.ErrInvalidMonth},
		{"zero amount", "2024-03", "General", decimal.Zero, domain.ErrInvalidAmount},
		{"rounds to zero", "2024-03", "General", decimal.RequireFromString("0.001"), domain.ErrInvalidAmount},
		{"more than two decimals", "2024-03", "Comida", decimal.RequireFromString("50.125"), domain.ErrInvalidAmount},
		{"amount too large", "2024-03", "General", decimal.New(1, 10), domain.ErrInvalidAmount},
		{"unknown category", "2024-03", "Viajes", decimal.NewFromInt(1), domain.ErrUnknownBudgetCategory},
		{"blank category", "2024-03", " ", decimal.NewFromInt(1), domain.ErrUnknownBudgetCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBudgetFixture()
			_, err := f.svc.SetBudget(context.Background(), f.userID, tt.month, tt.category, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.budgets.Budgets)
		})
	}
}

func TestSetBudget_UserCategory(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()
	_, err := f.categories.CreateCategory(ctx, f.userID, CategoryInput{Name: "Viajes", Color: domain.ColorGreen})
	require.NoError(t, err)

	budget, err := f.svc.SetBudget(ctx, f.userID, "2024-03", "VIAJES", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "Viajes", budget.Category)
}

func TestListBudgets(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "General", Amount: decimal.NewFromInt(1)})
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-04", Category: "General", Amount: decimal.NewFromInt(1)})
	f.budgets.AddBudget(&domain.Budget{UserID: uuid.New(), Month: "2024-03", Category: "General", Amount: decimal.NewFromInt(1)})

	all, err := f.svc.ListBudgets(ctx, f.userID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	march, err := f.svc.ListBudgets(ctx, f.userID, "2024-03")
	require.NoError(t, err)
	assert.Len(t, march, 1)

	_, err = f.svc.ListBudgets(ctx, f.userID, "march")
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
}

func TestDeleteBudget(t *testing.T) {
	f := newBudgetFixture()
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "General", Amount: decimal.NewFromInt(1)})

	assert.ErrorIs(t, f.svc.DeleteBudget(context.Background(), uuid.New(), 1), domain.ErrBudgetNotFound)
	require.NoError(t, f.svc.DeleteBudget(context.Background(), f.userID, 1))
	assert.Empty(t, f.budgets.Budgets)
}

func TestMonthSummary(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "General", Amount: decimal.NewFromInt(100)})
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "Comida", Amount: decimal.NewFromInt(50)})
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-04", Category: "Salud", Amount: decimal.NewFromInt(50)})
	f.expenses.AddExpense(&domain.Expense{UserID: f.userID, Amount: decimal.NewFromInt(45), Category: "Comida", Date: mustDate("2024-03-01")})
	f.expenses.AddExpense(&domain.Expense{UserID: f.userID, Amount: decimal.NewFromInt(40), Category: "Transporte", Date: mustDate("2024-03-02")})
	f.expenses.AddExpense(&domain.Expense{UserID: f.userID, Amount: decimal.NewFromInt(99), Category: "Comida", Date: mustDate("2024-04-01")})

	summary, err := f.svc.MonthSummary(ctx, f.userID, "2024-03")
	require.NoError(t, err)

	assert.True(t, summary.Spent.Equal(decimal.NewFromInt(85)))
	require.NotNil(t, summary.General)
	assert.Equal(t, domain.BudgetStatusWarning, summary.General.Status)
	assert.True(t, summary.General.Remaining.Equal(decimal.NewFromInt(15)))

	require.Len(t, summary.Categories, 1)
	comida := summary.Categories[0]
	assert.Equal(t, "Comida", comida.Budget.Category)
	assert.True(t, comida.Spent.Equal(decimal.NewFromInt(45)))
	assert.True(t, comida.Percentage.Equal(decimal.NewFromInt(90)))

	names := make([]string, len(summary.AvailableCategories))
	for i, c := range summary.AvailableCategories {
		names[i] = c.Name
	}
	assert.NotContains(t, names, "Comida")
	assert.Contains(t, names, "Salud")
	assert.Len(t, names, len(domain.DefaultCategories())-1)
}

func TestSetBudget_TrailingZerosAccepted(t *testing.T) {
	f := newBudgetFixture()

	budget, err := f.svc.SetBudget(context.Background(), f.userID, "2024-03", "General", decimal.RequireFromString("9999999999.990"))
	require.NoError(t, err)
	assert.Equal(t, "9999999999.99", budget.Amount.StringFixed(2))
}

func TestMonthSummary_MatchesExpenseCategoryIgnoringCase(t *testing.T) {
	f := newBudgetFixture()
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "Comida", Amount: decimal.NewFromInt(50)})
	f.expenses.AddExpense(&domain.Expense{UserID: f.userID, Amount: decimal.NewFromInt(20), Category: "comida", Date: mustDate("2024-03-01")})
	f.expenses.AddExpense(&domain.Expense{UserID: f.userID, Amount: decimal.NewFromInt(5), Category: "COMIDA ", Date: mustDate("2024-03-02")})

	summary, err := f.svc.MonthSummary(context.Background(), f.userID, "2024-03")
	require.NoError(t, err)

	require.Len(t, summary.Categories, 1)
	assert.True(t, summary.Categories[0].Spent.Equal(decimal.NewFromInt(25)))
}

func TestMonthSummary_GeneralIsNeverAvailable(t *testing.T) {
	f := newBudgetFixture()
	ctx := context.Background()

	_, err := f.categories.CreateCategory(ctx, f.userID, CategoryInput{Name: "general", Color: domain.ColorGreen})
	require.ErrorIs(t, err, domain.ErrReservedCategoryName)

	summary, err := f.svc.MonthSummary(ctx, f.userID, "2024-03")
	require.NoError(t, err)
	for _, c := range summary.AvailableCategories {
		assert.NotEqual(t, "general", domain.CategoryKey(c.Name))
	}
}

func TestMonthSummary_NoBudgets(t *testing.T) {
	f := newBudgetFixture()

	summary, err := f.svc.MonthSummary(context.Background(), f.userID, "2024-03")
	require.NoError(t, err)
	assert.Nil(t, summary.General)
	assert.Empty(t, summary.Categories)
	assert.True(t, summary.Spent.IsZero())
}
