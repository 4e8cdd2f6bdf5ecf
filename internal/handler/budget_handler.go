package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
)

// BudgetHandler handles budget HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// SetBudgetRequest represents the upsert budget request body
type SetBudgetRequest struct {
	Category string `json:"category" validate:"notblank"`
	Amount   string `json:"amount" validate:"required,positive"`
}

// BudgetResponse represents a budget in API responses
type BudgetResponse struct {
	ID        int64  `json:"id"`
	Month     string `json:"month"`
	Category  string `json:"category"`
	Amount    string `json:"amount"`
	IsGeneral bool   `json:"isGeneral"`
	UpdatedAt string `json:"updatedAt"`
}

// BudgetProgressResponse represents a budget with spending progress
type BudgetProgressResponse struct {
	Budget     BudgetResponse `json:"budget"`
	Spent      string         `json:"spent"`
	Remaining  string         `json:"remaining"`
	Percentage string         `json:"percentage"`
	Status     string         `json:"status"`
}

// MonthBudgetSummaryResponse represents the budget progress of a month
type MonthBudgetSummaryResponse struct {
	Month               string                   `json:"month"`
	General             *BudgetProgressResponse  `json:"general"`
	Spent               string                   `json:"spent"`
	Categories          []BudgetProgressResponse `json:"categories"`
	AvailableCategories []CategoryResponse       `json:"availableCategories"`
}

func toBudgetResponse(b *domain.Budget) BudgetResponse {
	return BudgetResponse{
		ID:        b.ID,
		Month:     b.Month,
		Category:  b.Category,
		Amount:    b.Amount.StringFixed(2),
		IsGeneral: b.IsGeneral(),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}

func toBudgetProgressResponse(p *domain.BudgetProgress) BudgetProgressResponse {
	return BudgetProgressResponse{
		Budget:     toBudgetResponse(p.Budget),
		Spent:      p.Spent.StringFixed(2),
		Remaining:  p.Remaining.StringFixed(2),
		Percentage: p.Percentage.StringFixed(2),
		Status:     string(p.Status),
	}
}

// ListBudgets godoc
// @Summary List budgets
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {array} BudgetResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /budgets [get]
func (h *BudgetHandler) ListBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)

	budgets, err := h.budgetService.ListBudgets(c.Request().Context(), userID, c.QueryParam("month"))
	if err != nil {
		return handleServiceError(c, err, "list budgets")
	}

	resp := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		resp[i] = toBudgetResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// SetBudget godoc
// @Summary Set a budget
// @Description Creates or replaces the budget of a month for General or one of the user's categories.
// @Tags budgets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param month path string true "Month (YYYY-MM)"
// @Param request body SetBudgetRequest true "Budget"
// @Success 200 {object} BudgetResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /budgets/{month} [put]
func (h *BudgetHandler) SetBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req SetBudgetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return handleServiceError(c, domain.ErrInvalidAmount, "set budget")
	}

	budget, err := h.budgetService.SetBudget(c.Request().Context(), userID, c.Param("month"), req.Category, amount)
	if err != nil {
		return handleServiceError(c, err, "set budget")
	}

	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// GetMonthSummary godoc
// @Summary Budget progress for a month
// @Tags budgets
// @Produce json
// @Security BearerAuth
// @Param month path string true "Month (YYYY-MM)"
// @Success 200 {object} MonthBudgetSummaryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /budgets/{month}/summary [get]
func (h *BudgetHandler) GetMonthSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)

	summary, err := h.budgetService.MonthSummary(c.Request().Context(), userID, c.Param("month"))
	if err != nil {
		return handleServiceError(c, err, "get budget summary")
	}

	resp := MonthBudgetSummaryResponse{
		Month:               summary.Month,
		Spent:               summary.Spent.StringFixed(2),
		Categories:          make([]BudgetProgressResponse, len(summary.Categories)),
		AvailableCategories: toCategoryResponses(summary.AvailableCategories),
	}
	if summary.General != nil {
		general := toBudgetProgressResponse(summary.General)
		resp.General = &general
	}
	for i, p := range summary.Categories {
		resp.Categories[i] = toBudgetProgressResponse(p)
	}

	return c.JSON(http.StatusOK, resp)
}

// DeleteBudget godoc
// @Summary Delete a budget
// @Tags budgets
// @Security BearerAuth
// @Param id path int true "Budget ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, ok := parseInt64Param(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(c.Request().Context(), userID, id); err != nil {
		return handleServiceError(c, err, "delete budget")
	}

	return c.NoContent(http.StatusNoContent)
}
