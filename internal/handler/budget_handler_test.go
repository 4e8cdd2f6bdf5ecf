package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/localstore"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
	"github.com/dafibh/gastify/gastify-backend/internal/testutil"
)

type budgetHandlerFixture struct {
	handler  *BudgetHandler
	budgets  *testutil.MockBudgetRepository
	expenses *testutil.MockExpenseRepository
	userID   uuid.UUID
}

func newBudgetHandlerFixture() *budgetHandlerFixture {
	budgets := testutil.NewMockBudgetRepository()
	expenses := testutil.NewMockExpenseRepository()
	categories := service.NewCategoryService(localstore.NewMemoryStorage(), expenses)
	return &budgetHandlerFixture{
		handler:  NewBudgetHandler(service.NewBudgetService(budgets, expenses, categories)),
		budgets:  budgets,
		expenses: expenses,
		userID:   uuid.New(),
	}
}

func TestSetBudget_General(t *testing.T) {
	e := newTestEcho()
	f := newBudgetHandlerFixture()

	c, rec := newRequestContext(e, http.MethodPut, "/api/v1/budgets/2024-03",
		`{"category":"general","amount":"1200"}`, "month", "2024-03")
	setupAuthContext(c, f.userID, "ana@example.com", "")

	require.NoError(t, f.handler.SetBudget(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp BudgetResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, domain.GeneralBudgetCategory, resp.Category)
	assert.Equal(t, "1200.00", resp.Amount)
	assert.True(t, resp.IsGeneral)
	assert.Equal(t, "2024-03", resp.Month)
}

func TestSetBudget_Upserts(t *testing.T) {
	e := newTestEcho()
	f := newBudgetHandlerFixture()

	for _, amount := range []string{"100", "250"} {
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/budgets/2024-03",
			`{"category":"Comida","amount":"`+amount+`"}`, "month", "2024-03")
		setupAuthContext(c, f.userID, "ana@example.com", "")
		require.NoError(t, f.handler.SetBudget(c))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	require.Len(t, f.budgets.Budgets, 1)
	for _, b := range f.budgets.Budgets {
		assert.True(t, b.Amount.Equal(decimal.NewFromInt(250)))
	}
}

func TestSetBudget_Errors(t *testing.T) {
	tests := []struct {
		name  string
		month string
		body  string
		field string
	}{
		{"unknown category", "2024-03", `{"category":"Viajes","amount":"10"}`, "category"},
		{"zero amount", "2024-03", `{"category":"General","amount":"0"}`, "amount"},
		{"bad month", "2024-3", `{"category":"General","amount":"10"}`, "month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			f := newBudgetHandlerFixture()

			c, rec := newRequestContext(e, http.MethodPut, "/api/v1/budgets/"+tt.month, tt.body, "month", tt.month)
			setupAuthContext(c, f.userID, "ana@example.com", "")

			require.NoError(t, f.handler.SetBudget(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.True(t, hasFieldError(decodeProblem(t, rec), tt.field))
			assert.Empty(t, f.budgets.Budgets)
		})
	}
}

func TestListBudgets(t *testing.T) {
	e := newTestEcho()
	f := newBudgetHandlerFixture()
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "General", Amount: decimal.NewFromInt(100)})
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-04", Category: "General", Amount: decimal.NewFromInt(200)})
	f.budgets.AddBudget(&domain.Budget{UserID: uuid.New(), Month: "2024-03", Category: "General", Amount: decimal.NewFromInt(300)})

	c, rec := newRequestContext(e, http.MethodGet, "/api/v1/budgets", "")
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.ListBudgets(c))
	var all []BudgetResponse
	decodeJSON(t, rec, &all)
	assert.Len(t, all, 2)

	c, rec = newRequestContext(e, http.MethodGet, "/api/v1/budgets?month=2024-04", "")
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.ListBudgets(c))
	var april []BudgetResponse
	decodeJSON(t, rec, &april)
	require.Len(t, april, 1)
	assert.Equal(t, "200.00", april[0].Amount)
}

func TestGetMonthSummary(t *testing.T) {
	e := newTestEcho()
	f := newBudgetHandlerFixture()
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "General", Amount: decimal.NewFromInt(100)})
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "Comida", Amount: decimal.NewFromInt(40)})
	f.expenses.AddExpense(&domain.Expense{
		UserID:   f.userID,
		Amount:   decimal.NewFromInt(50),
		Category: "Comida",
		Date:     time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	})

	c, rec := newRequestContext(e, http.MethodGet, "/api/v1/budgets/2024-03/summary", "", "month", "2024-03")
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.GetMonthSummary(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp MonthBudgetSummaryResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "50.00", resp.Spent)
	require.NotNil(t, resp.General)
	assert.Equal(t, "50.00", resp.General.Remaining)
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, string(domain.BudgetStatusExceeded), resp.Categories[0].Status)
	for _, c := range resp.AvailableCategories {
		assert.NotEqual(t, "Comida", c.Name)
	}
	assert.Len(t, resp.AvailableCategories, len(domain.DefaultCategories())-1)
}

func TestDeleteBudget(t *testing.T) {
	e := newTestEcho()
	f := newBudgetHandlerFixture()
	f.budgets.AddBudget(&domain.Budget{UserID: f.userID, Month: "2024-03", Category: "General", Amount: decimal.NewFromInt(100)})

	c, rec := newRequestContext(e, http.MethodDelete, "/api/v1/budgets/1", "", "id", "1")
	setupAuthContext(c, uuid.New(), "luis@example.com", "")
	require.NoError(t, f.handler.DeleteBudget(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newRequestContext(e, http.MethodDelete, "/api/v1/budgets/1", "", "id", "1")
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.DeleteBudget(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.budgets.Budgets)
}
