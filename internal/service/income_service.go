package service

import (
	"context"
	"errors"
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

// IncomeService handles income records and keeps the month's General budget
// in step with them.
type IncomeService struct {
	eventSink
	incomeRepo domain.IncomeRepository
	budgetRepo domain.BudgetRepository
	tx         domain.Transactor
}

// NewIncomeService creates a new IncomeService
func NewIncomeService(incomeRepo domain.IncomeRepository, budgetRepo domain.BudgetRepository, tx domain.Transactor) *IncomeService {
	return &IncomeService{
		incomeRepo: incomeRepo,
		budgetRepo: budgetRepo,
		tx:         tx,
	}
}

// IncomeInput holds the editable fields of an income
type IncomeInput struct {
	Amount      decimal.Decimal
	Source      string
	Date        string
	Description string
}

func (in IncomeInput) validate() (*domain.Income, error) {
	if !domain.ValidAmount(in.Amount) {
		return nil, domain.ErrInvalidAmount
	}

	date, err := util.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		return nil, domain.ErrIncomeSourceRequired
	}
	if utf8.RuneCountInString(source) > domain.MaxSourceLength {
		return nil, domain.ErrIncomeSourceTooLong
	}

	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}

	return &domain.Income{
		Amount:      in.Amount,
		Source:      source,
		Date:        date,
		Description: description,
	}, nil
}

// Sources returns the suggested income sources
func (s *IncomeService) Sources() []string {
	sources := make([]string, len(domain.IncomeSources))
	copy(sources, domain.IncomeSources)
	return sources
}

// ListIncome returns the user's incomes, newest first, matching query
func (s *IncomeService) ListIncome(ctx context.Context, userID uuid.UUID, query string) ([]*domain.Income, error) {
	incomes, err := s.incomeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregate.FilterIncome(incomes, query), nil
}

// GetIncome retrieves one of the user's incomes
func (s *IncomeService) GetIncome(ctx context.Context, userID uuid.UUID, id int64) (*domain.Income, error) {
	return s.incomeRepo.GetByID(ctx, userID, id)
}

// CreateIncome stores an income and raises the General budget of its month by the amount
func (s *IncomeService) CreateIncome(ctx context.Context, userID uuid.UUID, input IncomeInput) (*domain.Income, error) {
	income, err := input.validate()
	if err != nil {
		return nil, err
	}
	income.UserID = userID

	var (
		created  *domain.Income
		adjusted []*domain.Budget
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.incomeRepo.Create(ctx, income)
		if err != nil {
			return err
		}
		adjusted, err = s.adjustGeneralBudget(ctx, userID, created.Month(), created.Amount, adjusted)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create income")
		return nil, err
	}

	s.publishEvent(userID, websocket.IncomeCreated(created))
	s.publishBudgets(userID, adjusted)
	return created, nil
}

// UpdateIncome replaces an income and moves the General budget by the difference.
// When the date changes month, the old month loses the old amount and the new
// month gains the new amount.
func (s *IncomeService) UpdateIncome(ctx context.Context, userID uuid.UUID, id int64, input IncomeInput) (*domain.Income, error) {
	income, err := input.validate()
	if err != nil {
		return nil, err
	}
	income.ID = id
	income.UserID = userID

	var (
		updated  *domain.Income
		adjusted []*domain.Budget
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		old, err := s.incomeRepo.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		oldMonth, oldAmount := old.Month(), old.Amount

		updated, err = s.incomeRepo.Update(ctx, income)
		if err != nil {
			return err
		}

		if oldMonth == updated.Month() {
			adjusted, err = s.adjustGeneralBudget(ctx, userID, oldMonth, updated.Amount.Sub(oldAmount), adjusted)
			return err
		}
		adjusted, err = s.adjustGeneralBudget(ctx, userID, oldMonth, oldAmount.Neg(), adjusted)
		if err != nil {
			return err
		}
		adjusted, err = s.adjustGeneralBudget(ctx, userID, updated.Month(), updated.Amount, adjusted)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrIncomeNotFound) {
			log.Error().Err(err).Str("user_id", userID.String()).Int64("income_id", id).Msg("Failed to update income")
		}
		return nil, err
	}

	s.publishEvent(userID, websocket.IncomeUpdated(updated))
	s.publishBudgets(userID, adjusted)
	return updated, nil
}

// DeleteIncome removes an income and lowers the General budget of its month by the amount
func (s *IncomeService) DeleteIncome(ctx context.Context, userID uuid.UUID, id int64) error {
	var adjusted []*domain.Budget
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		old, err := s.incomeRepo.GetByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := s.incomeRepo.Delete(ctx, userID, id); err != nil {
			return err
		}
		adjusted, err = s.adjustGeneralBudget(ctx, userID, old.Month(), old.Amount.Neg(), adjusted)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrIncomeNotFound) {
			log.Error().Err(err).Str("user_id", userID.String()).Int64("income_id", id).Msg("Failed to delete income")
		}
		return err
	}

	s.publishEvent(userID, websocket.IncomeDeleted(map[string]int64{"id": id}))
	s.publishBudgets(userID, adjusted)
	return nil
}

// adjustGeneralBudget adds delta to the General budget of month. A month
// without a General budget is left alone. The result may drop to zero or below.
func (s *IncomeService) adjustGeneralBudget(ctx context.Context, userID uuid.UUID, month string, delta decimal.Decimal, adjusted []*domain.Budget) ([]*domain.Budget, error) {
	if delta.IsZero() {
		return adjusted, nil
	}

	general, err := s.budgetRepo.GetByMonthCategory(ctx, userID, month, domain.GeneralBudgetCategory)
	if errors.Is(err, domain.ErrBudgetNotFound) {
		log.Debug().Str("user_id", userID.String()).Str("month", month).Msg("No General budget to adjust")
		return adjusted, nil
	}
	if err != nil {
		return adjusted, err
	}

	budget, err := s.budgetRepo.UpdateAmount(ctx, userID, general.ID, general.Amount.Add(delta))
	if err != nil {
		return adjusted, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("month", month).
		Str("delta", delta.String()).
		Str("amount", budget.Amount.String()).
		Msg("General budget adjusted")
	return append(adjusted, budget), nil
}

func (s *IncomeService) publishBudgets(userID uuid.UUID, budgets []*domain.Budget) {
	for _, b := range budgets {
		s.publishEvent(userID, websocket.BudgetUpdated(b))
	}
}
