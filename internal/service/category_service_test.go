package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/localstore"
	"github.com/dafibh/gastify/gastify-backend/internal/testutil"
)

func newCategoryService() (*CategoryService, *localstore.MemoryStorage, *testutil.MockExpenseRepository) {
	store := localstore.NewMemoryStorage()
	expenses := testutil.NewMockExpenseRepository()
	return NewCategoryService(store, expenses), store, expenses
}

// failingStorage fails every write
type failingStorage struct {
	localstore.Storage
}

func (failingStorage) SetItem(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestListCategories_DefaultsWhenNothingStored(t *testing.T) {
	svc, _, _ := newCategoryService()

	categories, err := svc.ListCategories(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories(), categories)
}

func TestListCategories_MalformedStoredValue(t *testing.T) {
	svc, store, _ := newCategoryService()
	userID := uuid.New()
	require.NoError(t, store.SetItem(context.Background(), categoriesKey(userID), `{"not":"a list"}`))

	categories, err := svc.ListCategories(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories(), categories)
}

func TestListCategories_ReadsStoredList(t *testing.T) {
	svc, store, _ := newCategoryService()
	userID := uuid.New()
	require.NoError(t, store.SetItem(context.Background(), categoriesKey(userID),
		`[{"id":"a","name":"Mascotas","color":"pink","isPredefined":false}]`))

	categories, err := svc.ListCategories(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Mascotas", categories[0].Name)
}

func TestCreateCategory_PersistsWholeList(t *testing.T) {
	svc, store, _ := newCategoryService()
	userID := uuid.New()
	publisher := &testutil.RecordingPublisher{}
	svc.SetEventPublisher(publisher)

	created, err := svc.CreateCategory(context.Background(), userID, CategoryInput{Name: "  Mascotas ", Color: domain.ColorPink})
	require.NoError(t, err)

	assert.Equal(t, "Mascotas", created.Name)
	assert.False(t, created.IsPredefined)
	_, err = uuid.Parse(created.ID)
	assert.NoError(t, err)

	raw, found, err := store.GetItem(context.Background(), categoriesKey(userID))
	require.NoError(t, err)
	require.True(t, found)
	loaded := domain.DecodeCategories(raw)
	assert.Equal(t, domain.CategorySourceStored, loaded.Source)
	assert.Len(t, loaded.Categories, len(domain.DefaultCategories())+1)
	assert.Equal(t, []string{"category.created"}, publisher.Types())
}

func TestCreateCategory_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   CategoryInput
		wantErr error
	}{
		{"blank name", CategoryInput{Name: "   ", Color: domain.ColorPink}, domain.ErrNameRequired},
		{"long name", CategoryInput{Name: strings.Repeat("x", 51), Color: domain.ColorPink}, domain.ErrNameTooLong},
		{"unknown color", CategoryInput{Name: "Mascotas", Color: "magenta"}, domain.ErrInvalidColor},
		{"duplicate ignoring case", CategoryInput{Name: " comida ", Color: domain.ColorPink}, domain.ErrCategoryAlreadyExists},
		{"reserved general", CategoryInput{Name: "General", Color: domain.ColorPink}, domain.ErrReservedCategoryName},
		{"reserved general lowercase", CategoryInput{Name: " general ", Color: domain.ColorPink}, domain.ErrReservedCategoryName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newCategoryService()
			userID := uuid.New()

			_, err := svc.CreateCategory(context.Background(), userID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)

			_, found, _ := store.GetItem(context.Background(), categoriesKey(userID))
			assert.False(t, found)
			categories, _ := svc.ListCategories(context.Background(), userID)
			assert.Len(t, categories, len(domain.DefaultCategories()))
		})
	}
}

func TestUpdateCategory(t *testing.T) {
	svc, _, _ := newCategoryService()
	userID := uuid.New()
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, userID, CategoryInput{Name: "Mascotas", Color: domain.ColorPink})
	require.NoError(t, err)

	t.Run("rename user category", func(t *testing.T) {
		updated, err := svc.UpdateCategory(ctx, userID, created.ID, CategoryInput{Name: "Mascota", Color: domain.ColorGreen})
		require.NoError(t, err)
		assert.Equal(t, "Mascota", updated.Name)
		assert.Equal(t, domain.ColorGreen, updated.Color)
	})

	t.Run("same name with other case is allowed for itself", func(t *testing.T) {
		_, err := svc.UpdateCategory(ctx, userID, created.ID, CategoryInput{Name: "MASCOTA", Color: domain.ColorGreen})
		assert.NoError(t, err)
	})

	t.Run("name taken by another category", func(t *testing.T) {
		_, err := svc.UpdateCategory(ctx, userID, created.ID, CategoryInput{Name: "salud", Color: domain.ColorGreen})
		assert.ErrorIs(t, err, domain.ErrCategoryAlreadyExists)
	})

	t.Run("predefined name is immutable", func(t *testing.T) {
		_, err := svc.UpdateCategory(ctx, userID, "1", CategoryInput{Name: "Restaurantes", Color: domain.ColorOrange})
		assert.ErrorIs(t, err, domain.ErrPredefinedCategoryImmutable)
	})

	t.Run("predefined color can change", func(t *testing.T) {
		updated, err := svc.UpdateCategory(ctx, userID, "1", CategoryInput{Name: "Comida", Color: domain.ColorRed})
		require.NoError(t, err)
		assert.Equal(t, domain.ColorRed, updated.Color)
		assert.True(t, updated.IsPredefined)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.UpdateCategory(ctx, userID, "nope", CategoryInput{Name: "X", Color: domain.ColorRed})
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	})
}

func TestDeleteCategory(t *testing.T) {
	svc, _, _ := newCategoryService()
	userID := uuid.New()
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, userID, CategoryInput{Name: "Mascotas", Color: domain.ColorPink})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, userID, "1"), domain.ErrPredefinedCategoryDelete)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, userID, "missing"), domain.ErrCategoryNotFound)
	require.NoError(t, svc.DeleteCategory(ctx, userID, created.ID))

	categories, err := svc.ListCategories(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories(), categories)
}

func TestCategoryService_FailedWriteKeepsState(t *testing.T) {
	svc := NewCategoryService(failingStorage{localstore.NewMemoryStorage()}, testutil.NewMockExpenseRepository())
	userID := uuid.New()

	_, err := svc.CreateCategory(context.Background(), userID, CategoryInput{Name: "Mascotas", Color: domain.ColorPink})
	assert.Error(t, err)

	categories, err := svc.ListCategories(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, categories, len(domain.DefaultCategories()))
}

func TestCanDelete(t *testing.T) {
	svc, _, expenses := newCategoryService()
	userID := uuid.New()
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, userID, CategoryInput{Name: "Mascotas", Color: domain.ColorPink})
	require.NoError(t, err)
	expenses.AddExpense(&domain.Expense{UserID: userID, Amount: decimal.NewFromInt(5), Category: "Mascotas", Date: mustDate("2024-03-01")})
	expenses.AddExpense(&domain.Expense{UserID: uuid.New(), Amount: decimal.NewFromInt(5), Category: "Mascotas", Date: mustDate("2024-03-01")})

	usage, err := svc.CanDelete(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.True(t, usage.CanDelete)
	assert.Equal(t, int64(1), usage.ExpenseCount)

	usage, err = svc.CanDelete(ctx, userID, "1")
	require.NoError(t, err)
	assert.False(t, usage.CanDelete)
	assert.True(t, usage.IsPredefined)
}

func TestReset_RemovesStoredCategories(t *testing.T) {
	svc, store, _ := newCategoryService()
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, userID, CategoryInput{Name: "Mascotas", Color: domain.ColorPink})
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx, userID))

	_, found, err := store.GetItem(ctx, categoriesKey(userID))
	require.NoError(t, err)
	assert.False(t, found)

	categories, err := svc.ListCategories(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategories(), categories)
}

func TestCategoryService_UsersAreIsolated(t *testing.T) {
	svc, _, _ := newCategoryService()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	_, err := svc.CreateCategory(ctx, alice, CategoryInput{Name: "Mascotas", Color: domain.ColorPink})
	require.NoError(t, err)

	categories, err := svc.ListCategories(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, categories, len(domain.DefaultCategories()))
}
