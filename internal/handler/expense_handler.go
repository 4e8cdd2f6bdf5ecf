package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
	"github.com/dafibh/gastify/gastify-backend/internal/util"
)

// ExpenseHandler handles expense-related HTTP requests
type ExpenseHandler struct {
	expenseService *service.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseRequest is the create/update expense request body
type ExpenseRequest struct {
	Amount      string `json:"amount" validate:"required,positive"`
	Category    string `json:"category" validate:"notblank"`
	Date        string `json:"date" validate:"required,ymd"`
	Description string `json:"description" validate:"max=500"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

func toExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Amount:      e.Amount.StringFixed(2),
		Category:    e.Category,
		Date:        e.Day(),
		Description: e.Description,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func toExpenseResponses(expenses []*domain.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	return out
}

func (r ExpenseRequest) toInput() (service.ExpenseInput, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return service.ExpenseInput{}, domain.ErrInvalidAmount
	}
	return service.ExpenseInput{
		Amount:      amount,
		Category:    r.Category,
		Date:        r.Date,
		Description: r.Description,
	}, nil
}

// parseInt64Param reads a positive integer path parameter
func parseInt64Param(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListExpenses godoc
// @Summary List expenses
// @Description Lists the user's expenses newest first. q matches description or category, date selects a single day, month a YYYY-MM month.
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param month query string false "Month (YYYY-MM)"
// @Success 200 {array} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /expenses [get]
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	userID := middleware.GetUserID(c)

	filter := domain.ExpenseFilter{
		Query: c.QueryParam("q"),
		Month: c.QueryParam("month"),
	}
	if date := c.QueryParam("date"); date != "" {
		parsed, err := util.ParseDate(date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		filter.Date = &parsed
	}

	expenses, err := h.expenseService.ListExpenses(c.Request().Context(), userID, filter)
	if err != nil {
		return handleServiceError(c, err, "list expenses")
	}

	return c.JSON(http.StatusOK, toExpenseResponses(expenses))
}

// GetExpense godoc
// @Summary Get an expense
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 200 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, ok := parseInt64Param(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	expense, err := h.expenseService.GetExpense(c.Request().Context(), userID, id)
	if err != nil {
		return handleServiceError(c, err, "get expense")
	}

	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// CreateExpense godoc
// @Summary Create an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ExpenseRequest true "Expense"
// @Success 201 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /expenses [post]
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req ExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.toInput()
	if err != nil {
		return handleServiceError(c, err, "create expense")
	}

	expense, err := h.expenseService.CreateExpense(c.Request().Context(), userID, input)
	if err != nil {
		return handleServiceError(c, err, "create expense")
	}

	return c.JSON(http.StatusCreated, toExpenseResponse(expense))
}

// UpdateExpense godoc
// @Summary Update an expense
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Param request body ExpenseRequest true "Expense"
// @Success 200 {object} ExpenseResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, ok := parseInt64Param(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	var req ExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.toInput()
	if err != nil {
		return handleServiceError(c, err, "update expense")
	}

	expense, err := h.expenseService.UpdateExpense(c.Request().Context(), userID, id, input)
	if err != nil {
		return handleServiceError(c, err, "update expense")
	}

	return c.JSON(http.StatusOK, toExpenseResponse(expense))
}

// DeleteExpense godoc
// @Summary Delete an expense
// @Tags expenses
// @Security BearerAuth
// @Param id path int true "Expense ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, ok := parseInt64Param(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	if err := h.expenseService.DeleteExpense(c.Request().Context(), userID, id); err != nil {
		return handleServiceError(c, err, "delete expense")
	}

	return c.NoContent(http.StatusNoContent)
}
