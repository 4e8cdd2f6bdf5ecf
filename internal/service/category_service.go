package service

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/localstore"
	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
)

// CategoryService manages each user's category list. Lists live in local
// storage as a JSON array and are cached in memory after the first read.
type CategoryService struct {
	eventSink
	store       localstore.Storage
	expenseRepo domain.ExpenseRepository

	mu    sync.Mutex
	cache map[uuid.UUID][]domain.Category
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(store localstore.Storage, expenseRepo domain.ExpenseRepository) *CategoryService {
	return &CategoryService{
		store:       store,
		expenseRepo: expenseRepo,
		cache:       make(map[uuid.UUID][]domain.Category),
	}
}

// CategoryInput holds the editable fields of a category
type CategoryInput struct {
	Name  string
	Color domain.Color
}

// CategoryUsage tells a client what deleting a category would affect
type CategoryUsage struct {
	Category     domain.Category `json:"category"`
	IsPredefined bool            `json:"isPredefined"`
	ExpenseCount int64           `json:"expenseCount"`
	CanDelete    bool            `json:"canDelete"`
}

func categoriesKey(userID uuid.UUID) string {
	return domain.CategoriesStorageKey + ":" + userID.String()
}

// load returns the cached list, reading local storage on first use. Callers hold s.mu.
func (s *CategoryService) load(ctx context.Context, userID uuid.UUID) ([]domain.Category, error) {
	if categories, ok := s.cache[userID]; ok {
		return categories, nil
	}

	raw, _, err := s.store.GetItem(ctx, categoriesKey(userID))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to read stored categories")
		return nil, err
	}

	loaded := domain.DecodeCategories(raw)
	if loaded.Reason != "" {
		log.Warn().
			Str("user_id", userID.String()).
			Str("reason", loaded.Reason).
			Msg("Stored categories are malformed, using defaults")
	}

	s.cache[userID] = loaded.Categories
	return loaded.Categories, nil
}

// persist writes the whole list and replaces the cache. Callers hold s.mu.
func (s *CategoryService) persist(ctx context.Context, userID uuid.UUID, categories []domain.Category) error {
	raw, err := domain.EncodeCategories(categories)
	if err != nil {
		return err
	}
	if err := s.store.SetItem(ctx, categoriesKey(userID), raw); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to store categories")
		return err
	}
	s.cache[userID] = categories
	return nil
}

// ListCategories returns a copy of the user's categories in display order
func (s *CategoryService) ListCategories(ctx context.Context, userID uuid.UUID) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, len(categories))
	copy(out, categories)
	return out, nil
}

// GetCategory finds one of the user's categories by id
func (s *CategoryService) GetCategory(ctx context.Context, userID uuid.UUID, id string) (*domain.Category, error) {
	categories, err := s.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if i := indexOfCategory(categories, id); i >= 0 {
		return &categories[i], nil
	}
	return nil, domain.ErrCategoryNotFound
}

// CreateCategory appends a user category
func (s *CategoryService) CreateCategory(ctx context.Context, userID uuid.UUID, input CategoryInput) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, err := validateCategory(categories, "", input)
	if err != nil {
		return nil, err
	}

	category := domain.Category{
		ID:    uuid.New().String(),
		Name:  name,
		Color: input.Color,
	}

	next := make([]domain.Category, 0, len(categories)+1)
	next = append(next, categories...)
	next = append(next, category)
	if err := s.persist(ctx, userID, next); err != nil {
		return nil, err
	}

	s.publishEvent(userID, websocket.CategoryCreated(category))
	return &category, nil
}

// UpdateCategory edits a category. Predefined categories keep their name.
func (s *CategoryService) UpdateCategory(ctx context.Context, userID uuid.UUID, id string, input CategoryInput) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := indexOfCategory(categories, id)
	if i < 0 {
		return nil, domain.ErrCategoryNotFound
	}

	name, err := validateCategory(categories, id, input)
	if err != nil {
		return nil, err
	}
	if categories[i].IsPredefined && name != categories[i].Name {
		return nil, domain.ErrPredefinedCategoryImmutable
	}

	next := make([]domain.Category, len(categories))
	copy(next, categories)
	next[i].Name = name
	next[i].Color = input.Color
	if err := s.persist(ctx, userID, next); err != nil {
		return nil, err
	}

	category := next[i]
	s.publishEvent(userID, websocket.CategoryUpdated(category))
	return &category, nil
}

// DeleteCategory removes a user category. Expenses keep the category name.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID uuid.UUID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	i := indexOfCategory(categories, id)
	if i < 0 {
		return domain.ErrCategoryNotFound
	}
	if categories[i].IsPredefined {
		return domain.ErrPredefinedCategoryDelete
	}

	next := make([]domain.Category, 0, len(categories)-1)
	next = append(next, categories[:i]...)
	next = append(next, categories[i+1:]...)
	if err := s.persist(ctx, userID, next); err != nil {
		return err
	}

	s.publishEvent(userID, websocket.CategoryDeleted(map[string]string{"id": id}))
	return nil
}

// CanDelete reports whether a category is removable and how many expenses use it
func (s *CategoryService) CanDelete(ctx context.Context, userID uuid.UUID, id string) (*CategoryUsage, error) {
	category, err := s.GetCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	count, err := s.expenseRepo.CountByCategory(ctx, userID, category.Name)
	if err != nil {
		return nil, err
	}

	return &CategoryUsage{
		Category:     *category,
		IsPredefined: category.IsPredefined,
		ExpenseCount: count,
		CanDelete:    !category.IsPredefined,
	}, nil
}

// Reset forgets the user's list and removes it from local storage
func (s *CategoryService) Reset(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, userID)
	return s.store.RemoveItem(ctx, categoriesKey(userID))
}

// validateCategory checks the input against the current list and returns the
// trimmed name. excludeID is the category being edited, empty on create.
func validateCategory(categories []domain.Category, excludeID string, input CategoryInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if utf8.RuneCountInString(name) > domain.MaxCategoryNameLength {
		return "", domain.ErrNameTooLong
	}
	// Budgets under this name are the month cap, not a category cap
	if strings.EqualFold(name, domain.GeneralBudgetCategory) {
		return "", domain.ErrReservedCategoryName
	}
	if !input.Color.Valid() {
		return "", domain.ErrInvalidColor
	}
	for _, c := range categories {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return "", domain.ErrCategoryAlreadyExists
		}
	}
	return name, nil
}

func indexOfCategory(categories []domain.Category, id string) int {
	for i, c := range categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
