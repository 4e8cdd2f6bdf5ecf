package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/testutil"
)

func newExpenseService() (*ExpenseService, *testutil.MockExpenseRepository, *testutil.RecordingPublisher) {
	repo := testutil.NewMockExpenseRepository()
	publisher := &testutil.RecordingPublisher{}
	svc := NewExpenseService(repo)
	svc.SetEventPublisher(publisher)
	return svc, repo, publisher
}

func TestCreateExpense_Success(t *testing.T) {
	svc, repo, publisher := newExpenseService()
	userID := uuid.New()

	expense, err := svc.CreateExpense(context.Background(), userID, ExpenseInput{
		Amount:      decimal.RequireFromString("15.50"),
		Category:    " Comida ",
		Date:        "2024-03-01",
		Description: "Café en Starbucks",
	})
	require.NoError(t, err)

	assert.Equal(t, userID, expense.UserID)
	assert.Equal(t, "Comida", expense.Category)
	assert.Equal(t, "2024-03-01", expense.Day())
	assert.True(t, expense.Amount.Equal(decimal.RequireFromString("15.5")))
	assert.Len(t, repo.Expenses, 1)
	assert.Equal(t, []string{"expense.created"}, publisher.Types())
	assert.Equal(t, userID, publisher.Events[0].UserID)
}

func TestCreateExpense_Validation(t *testing.T) {
	valid := ExpenseInput{Amount: decimal.NewFromInt(10), Category: "Comida", Date: "2024-03-01"}

	tests := []struct {
		name    string
		mutate  func(in *ExpenseInput)
		wantErr error
	}{
		{"zero amount", func(in *ExpenseInput) { in.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"negative amount", func(in *ExpenseInput) { in.Amount = decimal.NewFromInt(-1) }, domain.ErrInvalidAmount},
		{"sub-cent amount", func(in *ExpenseInput) { in.Amount = decimal.RequireFromString("0.004") }, domain.ErrInvalidAmount},
		{"amount too large", func(in *ExpenseInput) { in.Amount = decimal.New(1, 10) }, domain.ErrInvalidAmount},
		{"empty date", func(in *ExpenseInput) { in.Date = "" }, domain.ErrInvalidDate},
		{"invalid day", func(in *ExpenseInput) { in.Date = "2024-02-30" }, domain.ErrInvalidDate},
		{"blank category", func(in *ExpenseInput) { in.Category = "   " }, domain.ErrExpenseCategoryRequired},
		{"long description", func(in *ExpenseInput) { in.Description = strings.Repeat("a", 501) }, domain.ErrDescriptionTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, publisher := newExpenseService()
			input := valid
			tt.mutate(&input)

			_, err := svc.CreateExpense(context.Background(), uuid.New(), input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.Expenses)
			assert.Empty(t, publisher.Events)
		})
	}
}

func TestUpdateExpense_PreservesIDAndOwner(t *testing.T) {
	svc, repo, publisher := newExpenseService()
	userID := uuid.New()
	repo.AddExpense(&domain.Expense{UserID: userID, Amount: decimal.NewFromInt(10), Category: "Comida", Date: mustDate("2024-03-01")})

	updated, err := svc.UpdateExpense(context.Background(), userID, 1, ExpenseInput{
		Amount: decimal.NewFromInt(25), Category: "Transporte", Date: "2024-03-02", Description: "Taxi",
	})
	require.NoError(t, err)

	fetched, err := svc.GetExpense(context.Background(), userID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ID)
	assert.Equal(t, userID, fetched.UserID)
	assert.Equal(t, "Transporte", fetched.Category)
	assert.Equal(t, "2024-03-02", fetched.Day())
	assert.Equal(t, "Taxi", fetched.Description)
	assert.Equal(t, []string{"expense.updated"}, publisher.Types())
}

func TestUpdateExpense_OtherUser(t *testing.T) {
	svc, repo, _ := newExpenseService()
	repo.AddExpense(&domain.Expense{UserID: uuid.New(), Amount: decimal.NewFromInt(10), Category: "Comida", Date: mustDate("2024-03-01")})

	_, err := svc.UpdateExpense(context.Background(), uuid.New(), 1, ExpenseInput{
		Amount: decimal.NewFromInt(25), Category: "Comida", Date: "2024-03-02",
	})
	assert.ErrorIs(t, err, domain.ErrExpenseNotFound)
}

func TestDeleteExpense(t *testing.T) {
	svc, repo, publisher := newExpenseService()
	userID := uuid.New()
	repo.AddExpense(&domain.Expense{UserID: userID, Amount: decimal.NewFromInt(10), Category: "Comida", Date: mustDate("2024-03-01")})

	require.NoError(t, svc.DeleteExpense(context.Background(), userID, 1))

	list, err := svc.ListExpenses(context.Background(), userID, domain.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, []string{"expense.deleted"}, publisher.Types())

	assert.ErrorIs(t, svc.DeleteExpense(context.Background(), userID, 1), domain.ErrExpenseNotFound)
}

func TestListExpenses_Filters(t *testing.T) {
	svc, repo, _ := newExpenseService()
	userID := uuid.New()
	repo.AddExpense(&domain.Expense{UserID: userID, Amount: decimal.NewFromInt(10), Category: "Comida", Date: mustDate("2024-03-01"), Description: "Almuerzo"})
	repo.AddExpense(&domain.Expense{UserID: userID, Amount: decimal.NewFromInt(20), Category: "Transporte", Date: mustDate("2024-03-02"), Description: "Pago Yape a Juan"})
	repo.AddExpense(&domain.Expense{UserID: userID, Amount: decimal.NewFromInt(30), Category: "Comida", Date: mustDate("2024-04-01")})

	day := mustDate("2024-03-01")
	tests := []struct {
		name   string
		filter domain.ExpenseFilter
		want   []int64
	}{
		{"all newest first", domain.ExpenseFilter{}, []int64{3, 2, 1}},
		{"query on description", domain.ExpenseFilter{Query: "yape"}, []int64{2}},
		{"query on category", domain.ExpenseFilter{Query: "COMIDA"}, []int64{3, 1}},
		{"exact day", domain.ExpenseFilter{Date: &day}, []int64{1}},
		{"month", domain.ExpenseFilter{Month: "2024-03"}, []int64{2, 1}},
		{"month and query", domain.ExpenseFilter{Month: "2024-03", Query: "comida"}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.ListExpenses(context.Background(), userID, tt.filter)
			require.NoError(t, err)
			ids := make([]int64, len(list))
			for i, e := range list {
				ids[i] = e.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestListExpenses_InvalidMonth(t *testing.T) {
	svc, _, _ := newExpenseService()
	_, err := svc.ListExpenses(context.Background(), uuid.New(), domain.ExpenseFilter{Month: "2024-3"})
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
}
