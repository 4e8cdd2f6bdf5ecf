package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository
type MockExpenseRepository struct {
	Expenses map[int64]*domain.Expense
	NextID   int64
	CreateFn func(expense *domain.Expense) (*domain.Expense, error)
	ListFn   func(userID uuid.UUID) ([]*domain.Expense, error)
	mu       sync.Mutex
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		Expenses: make(map[int64]*domain.Expense),
		NextID:   1,
	}
}

// Create stores an expense
func (m *MockExpenseRepository) Create(_ context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if m.CreateFn != nil {
		return m.CreateFn(expense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expense.ID = m.NextID
	m.NextID++
	expense.CreatedAt = time.Now()
	m.Expenses[expense.ID] = expense
	return expense, nil
}

// GetByID retrieves an expense owned by the user
func (m *MockExpenseRepository) GetByID(_ context.Context, userID uuid.UUID, id int64) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Expenses[id]; ok && e.UserID == userID {
		return e, nil
	}
	return nil, domain.ErrExpenseNotFound
}

// ListByUser returns the user's expenses, newest first
func (m *MockExpenseRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Expense, error) {
	if m.ListFn != nil {
		return m.ListFn(userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Expense
	for _, e := range m.Expenses {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	sortExpenses(result)
	return result, nil
}

// ListByMonth returns the user's expenses dated in month
func (m *MockExpenseRepository) ListByMonth(ctx context.Context, userID uuid.UUID, month string) ([]*domain.Expense, error) {
	all, err := m.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var result []*domain.Expense
	for _, e := range all {
		if strings.HasPrefix(e.Day(), month) {
			result = append(result, e)
		}
	}
	return result, nil
}

// Update replaces an expense
func (m *MockExpenseRepository) Update(_ context.Context, expense *domain.Expense) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Expenses[expense.ID]
	if !ok || existing.UserID != expense.UserID {
		return nil, domain.ErrExpenseNotFound
	}
	expense.CreatedAt = existing.CreatedAt
	m.Expenses[expense.ID] = expense
	return expense, nil
}

// Delete removes an expense
func (m *MockExpenseRepository) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Expenses[id]
	if !ok || e.UserID != userID {
		return domain.ErrExpenseNotFound
	}
	delete(m.Expenses, id)
	return nil
}

// CountByCategory counts the user's expenses tagged with category
func (m *MockExpenseRepository) CountByCategory(_ context.Context, userID uuid.UUID, category string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, e := range m.Expenses {
		if e.UserID == userID && domain.CategoryKey(e.Category) == domain.CategoryKey(category) {
			count++
		}
	}
	return count, nil
}

// AddExpense adds an expense to the mock repository (helper for tests)
func (m *MockExpenseRepository) AddExpense(expense *domain.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expense.ID == 0 {
		expense.ID = m.NextID
		m.NextID++
	}
	m.Expenses[expense.ID] = expense
}

func sortExpenses(expenses []*domain.Expense) {
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].Date.After(expenses[j].Date)
		}
		return expenses[i].ID > expenses[j].ID
	})
}

// MockIncomeRepository is a mock implementation of domain.IncomeRepository
type MockIncomeRepository struct {
	Incomes  map[int64]*domain.Income
	NextID   int64
	CreateFn func(income *domain.Income) (*domain.Income, error)
	UpdateFn func(income *domain.Income) (*domain.Income, error)
	mu       sync.Mutex
}

// NewMockIncomeRepository creates a new MockIncomeRepository
func NewMockIncomeRepository() *MockIncomeRepository {
	return &MockIncomeRepository{
		Incomes: make(map[int64]*domain.Income),
		NextID:  1,
	}
}

// Create stores an income
func (m *MockIncomeRepository) Create(_ context.Context, income *domain.Income) (*domain.Income, error) {
	if m.CreateFn != nil {
		return m.CreateFn(income)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	income.ID = m.NextID
	m.NextID++
	income.CreatedAt = time.Now()
	m.Incomes[income.ID] = income
	return income, nil
}

// GetByID retrieves an income owned by the user
func (m *MockIncomeRepository) GetByID(_ context.Context, userID uuid.UUID, id int64) (*domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.Incomes[id]; ok && i.UserID == userID {
		copied := *i
		return &copied, nil
	}
	return nil, domain.ErrIncomeNotFound
}

// ListByUser returns the user's incomes, newest first
func (m *MockIncomeRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Income
	for _, i := range m.Incomes {
		if i.UserID == userID {
			result = append(result, i)
		}
	}
	sort.Slice(result, func(a, b int) bool {
		if !result[a].Date.Equal(result[b].Date) {
			return result[a].Date.After(result[b].Date)
		}
		return result[a].ID > result[b].ID
	})
	return result, nil
}

// Update replaces an income
func (m *MockIncomeRepository) Update(_ context.Context, income *domain.Income) (*domain.Income, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(income)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Incomes[income.ID]
	if !ok || existing.UserID != income.UserID {
		return nil, domain.ErrIncomeNotFound
	}
	income.CreatedAt = existing.CreatedAt
	m.Incomes[income.ID] = income
	return income, nil
}

// Delete removes an income
func (m *MockIncomeRepository) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.Incomes[id]
	if !ok || i.UserID != userID {
		return domain.ErrIncomeNotFound
	}
	delete(m.Incomes, id)
	return nil
}

// AddIncome adds an income to the mock repository (helper for tests)
func (m *MockIncomeRepository) AddIncome(income *domain.Income) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if income.ID == 0 {
		income.ID = m.NextID
		m.NextID++
	}
	m.Incomes[income.ID] = income
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	Budgets          map[int64]*domain.Budget
	NextID           int64
	UpdateAmountFn   func(userID uuid.UUID, id int64, amount decimal.Decimal) (*domain.Budget, error)
	ListByMonthFn    func(userID uuid.UUID, month string) ([]*domain.Budget, error)
	UpdateAmountCall int
	mu               sync.Mutex
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[int64]*domain.Budget),
		NextID:  1,
	}
}

// Upsert creates the budget or replaces the amount of the existing one
func (m *MockBudgetRepository) Upsert(_ context.Context, budget *domain.Budget) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.Budgets {
		if b.UserID == budget.UserID && b.Month == budget.Month && b.Category == budget.Category {
			b.Amount = budget.Amount
			b.UpdatedAt = time.Now()
			return b, nil
		}
	}
	budget.ID = m.NextID
	m.NextID++
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = budget.CreatedAt
	m.Budgets[budget.ID] = budget
	return budget, nil
}

// GetByID retrieves a budget owned by the user
func (m *MockBudgetRepository) GetByID(_ context.Context, userID uuid.UUID, id int64) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.Budgets[id]; ok && b.UserID == userID {
		return b, nil
	}
	return nil, domain.ErrBudgetNotFound
}

// GetByMonthCategory finds the user's budget for a month and category
func (m *MockBudgetRepository) GetByMonthCategory(_ context.Context, userID uuid.UUID, month, category string) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.Budgets {
		if b.UserID == userID && b.Month == month && b.Category == category {
			return b, nil
		}
	}
	return nil, domain.ErrBudgetNotFound
}

// ListByUser returns all of the user's budgets
func (m *MockBudgetRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Budget
	for _, b := range m.Budgets {
		if b.UserID == userID {
			result = append(result, b)
		}
	}
	sortBudgets(result)
	return result, nil
}

// ListByMonth returns the user's budgets for one month
func (m *MockBudgetRepository) ListByMonth(ctx context.Context, userID uuid.UUID, month string) ([]*domain.Budget, error) {
	if m.ListByMonthFn != nil {
		return m.ListByMonthFn(userID, month)
	}
	all, _ := m.ListByUser(ctx, userID)
	var result []*domain.Budget
	for _, b := range all {
		if b.Month == month {
			result = append(result, b)
		}
	}
	return result, nil
}

// UpdateAmount sets a budget's amount
func (m *MockBudgetRepository) UpdateAmount(_ context.Context, userID uuid.UUID, id int64, amount decimal.Decimal) (*domain.Budget, error) {
	m.mu.Lock()
	m.UpdateAmountCall++
	m.mu.Unlock()
	if m.UpdateAmountFn != nil {
		return m.UpdateAmountFn(userID, id, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Budgets[id]
	if !ok || b.UserID != userID {
		return nil, domain.ErrBudgetNotFound
	}
	b.Amount = amount
	b.UpdatedAt = time.Now()
	return b, nil
}

// Delete removes a budget
func (m *MockBudgetRepository) Delete(_ context.Context, userID uuid.UUID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Budgets[id]
	if !ok || b.UserID != userID {
		return domain.ErrBudgetNotFound
	}
	delete(m.Budgets, id)
	return nil
}

// AddBudget adds a budget to the mock repository (helper for tests)
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if budget.ID == 0 {
		budget.ID = m.NextID
		m.NextID++
	}
	m.Budgets[budget.ID] = budget
}

func sortBudgets(budgets []*domain.Budget) {
	sort.Slice(budgets, func(i, j int) bool {
		if budgets[i].Month != budgets[j].Month {
			return budgets[i].Month > budgets[j].Month
		}
		return budgets[i].Category < budgets[j].Category
	})
}

// MockTransactor runs the callback directly. Rollback is simulated by
// restoring the snapshots when fn fails.
type MockTransactor struct {
	Calls    int
	Incomes  *MockIncomeRepository
	Budgets  *MockBudgetRepository
	BeginErr error
}

// NewMockTransactor creates a MockTransactor that can roll back the given repositories
func NewMockTransactor(incomes *MockIncomeRepository, budgets *MockBudgetRepository) *MockTransactor {
	return &MockTransactor{Incomes: incomes, Budgets: budgets}
}

// WithinTx implements domain.Transactor
func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.BeginErr != nil {
		return m.BeginErr
	}

	var incomeSnap map[int64]domain.Income
	var budgetSnap map[int64]domain.Budget
	if m.Incomes != nil {
		incomeSnap = make(map[int64]domain.Income)
		for id, i := range m.Incomes.Incomes {
			incomeSnap[id] = *i
		}
	}
	if m.Budgets != nil {
		budgetSnap = make(map[int64]domain.Budget)
		for id, b := range m.Budgets.Budgets {
			budgetSnap[id] = *b
		}
	}

	if err := fn(ctx); err != nil {
		if m.Incomes != nil {
			m.Incomes.Incomes = make(map[int64]*domain.Income)
			for id, i := range incomeSnap {
				copied := i
				m.Incomes.Incomes[id] = &copied
			}
		}
		if m.Budgets != nil {
			m.Budgets.Budgets = make(map[int64]*domain.Budget)
			for id, b := range budgetSnap {
				copied := b
				m.Budgets.Budgets[id] = &copied
			}
		}
		return err
	}
	return nil
}

// PublishedEvent is one event seen by a RecordingPublisher
type PublishedEvent struct {
	UserID uuid.UUID
	Event  websocket.Event
}

// RecordingPublisher collects published events
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// Publish implements websocket.EventPublisher
func (r *RecordingPublisher) Publish(userID uuid.UUID, event websocket.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, PublishedEvent{UserID: userID, Event: event})
}

// Types returns the event types in publish order
func (r *RecordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Event.Type
	}
	return types
}

// MockAuthProvider is a mock implementation of domain.AuthProvider
type MockAuthProvider struct {
	Users         map[string]*domain.User
	Passwords     map[string]string
	SignedOut     []string
	ResetRequests []string
	UpdateErr     error
	SignOutErr    error
}

// NewMockAuthProvider creates a new MockAuthProvider
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		Users:     make(map[string]*domain.User),
		Passwords: make(map[string]string),
	}
}

// SignUp registers a user
func (m *MockAuthProvider) SignUp(_ context.Context, email, password, username string) (*domain.User, error) {
	if _, ok := m.Users[email]; ok {
		return nil, domain.ErrUserAlreadyExists
	}
	user := &domain.User{ID: uuid.New(), Email: email, Username: username}
	m.Users[email] = user
	m.Passwords[email] = password
	return user, nil
}

// SignIn checks the credentials and issues a session whose access token is the user ID
func (m *MockAuthProvider) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	user, ok := m.Users[email]
	if !ok || m.Passwords[email] != password {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Session{
		AccessToken:  user.ID.String(),
		RefreshToken: "refresh-" + user.ID.String(),
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         *user,
	}, nil
}

// SignOut records the revoked token
func (m *MockAuthProvider) SignOut(_ context.Context, accessToken string) error {
	if m.SignOutErr != nil {
		return m.SignOutErr
	}
	m.SignedOut = append(m.SignedOut, accessToken)
	return nil
}

// RequestPasswordReset records the email
func (m *MockAuthProvider) RequestPasswordReset(_ context.Context, email, _ string) error {
	m.ResetRequests = append(m.ResetRequests, email)
	return nil
}

// UpdatePassword sets the password of the user the token belongs to
func (m *MockAuthProvider) UpdatePassword(_ context.Context, accessToken, password string) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for email, u := range m.Users {
		if u.ID.String() == accessToken {
			m.Passwords[email] = password
			return nil
		}
	}
	return domain.ErrUnauthorized
}

// AddUser registers a user with a password (helper for tests)
func (m *MockAuthProvider) AddUser(user *domain.User, password string) {
	m.Users[user.Email] = user
	m.Passwords[user.Email] = password
}

// MockExtractor is a mock implementation of domain.Extractor
type MockExtractor struct {
	Result   domain.ExtractedData
	Err      error
	Calls    int
	MimeType string
}

// Extract returns the configured result
func (m *MockExtractor) Extract(_ context.Context, image []byte, mimeType string) (domain.ExtractedData, error) {
	m.Calls++
	m.MimeType = mimeType
	return m.Result, m.Err
}

// MockReceiptRepository is an in-memory receipt object store. PutErr fails
// every Put; FailKeySuffix fails only keys ending with it.
type MockReceiptRepository struct {
	Objects       map[string][]byte
	PutErr        error
	FailKeySuffix string
	Removed       []string
	mu            sync.Mutex
}

// NewMockReceiptRepository creates a new MockReceiptRepository
func NewMockReceiptRepository() *MockReceiptRepository {
	return &MockReceiptRepository{Objects: make(map[string][]byte)}
}

func (m *MockReceiptRepository) Put(_ context.Context, key string, body []byte, _ string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.FailKeySuffix != "" && strings.HasSuffix(key, m.FailKeySuffix) {
		return fmt.Errorf("put %s: injected failure", key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *MockReceiptRepository) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.Objects, k)
	}
	m.Removed = append(m.Removed, keys...)
	return nil
}

// SignedURL returns a fake signed URL
func (m *MockReceiptRepository) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("mem://%s?expires=%d", key, int(ttl.Seconds())), nil
}
