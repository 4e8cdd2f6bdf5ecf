package handler

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
	"github.com/dafibh/gastify/gastify-backend/internal/testutil"
)

type incomeHandlerFixture struct {
	handler *IncomeHandler
	incomes *testutil.MockIncomeRepository
	budgets *testutil.MockBudgetRepository
	userID  uuid.UUID
}

func newIncomeHandlerFixture() *incomeHandlerFixture {
	incomes := testutil.NewMockIncomeRepository()
	budgets := testutil.NewMockBudgetRepository()
	svc := service.NewIncomeService(incomes, budgets, testutil.NewMockTransactor(incomes, budgets))
	return &incomeHandlerFixture{
		handler: NewIncomeHandler(svc),
		incomes: incomes,
		budgets: budgets,
		userID:  uuid.New(),
	}
}

func (f *incomeHandlerFixture) generalAmount(t *testing.T, month string) string {
	t.Helper()
	b, err := f.budgets.GetByMonthCategory(context.Background(), f.userID, month, domain.GeneralBudgetCategory)
	require.NoError(t, err)
	return b.Amount.StringFixed(2)
}

func TestIncomeHandler_BudgetLifecycle(t *testing.T) {
	e := newTestEcho()
	f := newIncomeHandlerFixture()
	f.budgets.AddBudget(&domain.Budget{
		UserID:   f.userID,
		Month:    "2024-03",
		Category: domain.GeneralBudgetCategory,
		Amount:   decimal.NewFromInt(1000),
	})

	// Create adds the amount
	c, rec := newRequestContext(e, http.MethodPost, "/api/v1/incomes",
		`{"amount":"500","source":"Salario","date":"2024-03-15"}`)
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.CreateIncome(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created IncomeResponse
	decodeJSON(t, rec, &created)
	assert.Equal(t, "500.00", created.Amount)
	assert.Equal(t, "1500.00", f.generalAmount(t, "2024-03"))

	// Update moves the difference
	id := strconv.FormatInt(created.ID, 10)
	c, rec = newRequestContext(e, http.MethodPut, "/api/v1/incomes/"+id,
		`{"amount":"700","source":"Salario","date":"2024-03-15"}`, "id", id)
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.UpdateIncome(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1700.00", f.generalAmount(t, "2024-03"))

	// Delete subtracts the current amount
	c, rec = newRequestContext(e, http.MethodDelete, "/api/v1/incomes/"+id, "", "id", id)
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.DeleteIncome(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1000.00", f.generalAmount(t, "2024-03"))
}

func TestCreateIncome_NoGeneralBudget(t *testing.T) {
	e := newTestEcho()
	f := newIncomeHandlerFixture()

	c, rec := newRequestContext(e, http.MethodPost, "/api/v1/incomes",
		`{"amount":"250.40","source":"Freelance","date":"2024-05-02","description":"Logo"}`)
	setupAuthContext(c, f.userID, "ana@example.com", "")

	require.NoError(t, f.handler.CreateIncome(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, f.budgets.Budgets, "no budget is created by an income")
}

func TestCreateIncome_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero amount", `{"amount":"0","source":"Salario","date":"2024-03-15"}`, "amount"},
		{"blank source", `{"amount":"10","source":"  ","date":"2024-03-15"}`, "source"},
		{"bad date", `{"amount":"10","source":"Salario","date":"2024-13-01"}`, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			f := newIncomeHandlerFixture()

			c, rec := newRequestContext(e, http.MethodPost, "/api/v1/incomes", tt.body)
			setupAuthContext(c, f.userID, "ana@example.com", "")

			require.NoError(t, f.handler.CreateIncome(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.True(t, hasFieldError(decodeProblem(t, rec), tt.field))
			assert.Empty(t, f.incomes.Incomes)
		})
	}
}

func TestGetIncome_NotFound(t *testing.T) {
	e := newTestEcho()
	f := newIncomeHandlerFixture()

	c, rec := newRequestContext(e, http.MethodGet, "/api/v1/incomes/7", "", "id", "7")
	setupAuthContext(c, f.userID, "ana@example.com", "")

	require.NoError(t, f.handler.GetIncome(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListIncomes_Query(t *testing.T) {
	e := newTestEcho()
	f := newIncomeHandlerFixture()
	for _, body := range []string{
		`{"amount":"100","source":"Salario","date":"2024-03-01"}`,
		`{"amount":"50","source":"Ventas","date":"2024-03-02","description":"Bicicleta"}`,
	} {
		c, rec := newRequestContext(e, http.MethodPost, "/api/v1/incomes", body)
		setupAuthContext(c, f.userID, "ana@example.com", "")
		require.NoError(t, f.handler.CreateIncome(c))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	c, rec := newRequestContext(e, http.MethodGet, "/api/v1/incomes?q=bici", "")
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.ListIncomes(c))

	var resp []IncomeResponse
	decodeJSON(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "Ventas", resp[0].Source)
}

func TestGetSources(t *testing.T) {
	e := newTestEcho()
	f := newIncomeHandlerFixture()

	c, rec := newRequestContext(e, http.MethodGet, "/api/v1/incomes/sources", "")
	setupAuthContext(c, f.userID, "ana@example.com", "")
	require.NoError(t, f.handler.GetSources(c))

	var sources []string
	decodeJSON(t, rec, &sources)
	assert.Equal(t, domain.IncomeSources, sources)
}
