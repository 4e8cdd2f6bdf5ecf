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

// IncomeHandler handles income-related HTTP requests
type IncomeHandler struct {
	incomeService *service.IncomeService
}

// NewIncomeHandler creates a new IncomeHandler
func NewIncomeHandler(incomeService *service.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// IncomeRequest is the create/update income request body
type IncomeRequest struct {
	Amount      string `json:"amount" validate:"required,positive"`
	Source      string `json:"source" validate:"notblank,max=100"`
	Date        string `json:"date" validate:"required,ymd"`
	Description string `json:"description" validate:"max=500"`
}

// IncomeResponse represents an income in API responses
type IncomeResponse struct {
	ID          int64  `json:"id"`
	Amount      string `json:"amount"`
	Source      string `json:"source"`
	Date        string `json:"date"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

func toIncomeResponse(i *domain.Income) IncomeResponse {
	return IncomeResponse{
		ID:          i.ID,
		Amount:      i.Amount.StringFixed(2),
		Source:      i.Source,
		Date:        i.Date.Format(domain.DateLayout),
		Description: i.Description,
		CreatedAt:   i.CreatedAt.Format(time.RFC3339),
	}
}

func (r IncomeRequest) toInput() (service.IncomeInput, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return service.IncomeInput{}, domain.ErrInvalidAmount
	}
	return service.IncomeInput{
		Amount:      amount,
		Source:      r.Source,
		Date:        r.Date,
		Description: r.Description,
	}, nil
}

// ListIncomes godoc
// @Summary List incomes
// @Description Lists the user's incomes newest first. q matches source or description.
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Success 200 {array} IncomeResponse
// @Failure 401 {object} ProblemDetails
// @Router /incomes [get]
func (h *IncomeHandler) ListIncomes(c echo.Context) error {
	userID := middleware.GetUserID(c)

	incomes, err := h.incomeService.ListIncome(c.Request().Context(), userID, c.QueryParam("q"))
	if err != nil {
		return handleServiceError(c, err, "list incomes")
	}

	resp := make([]IncomeResponse, len(incomes))
	for i, income := range incomes {
		resp[i] = toIncomeResponse(income)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetSources godoc
// @Summary Suggested income sources
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} string
// @Router /incomes/sources [get]
func (h *IncomeHandler) GetSources(c echo.Context) error {
	return c.JSON(http.StatusOK, h.incomeService.Sources())
}

// GetIncome godoc
// @Summary Get an income
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Success 200 {object} IncomeResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /incomes/{id} [get]
func (h *IncomeHandler) GetIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, ok := parseInt64Param(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	income, err := h.incomeService.GetIncome(c.Request().Context(), userID, id)
	if err != nil {
		return handleServiceError(c, err, "get income")
	}

	return c.JSON(http.StatusOK, toIncomeResponse(income))
}

// CreateIncome godoc
// @Summary Create an income
// @Description Records an income and adds its amount to the General budget of its month, when one exists.
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IncomeRequest true "Income"
// @Success 201 {object} IncomeResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /incomes [post]
func (h *IncomeHandler) CreateIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req IncomeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.toInput()
	if err != nil {
		return handleServiceError(c, err, "create income")
	}

	income, err := h.incomeService.CreateIncome(c.Request().Context(), userID, input)
	if err != nil {
		return handleServiceError(c, err, "create income")
	}

	return c.JSON(http.StatusCreated, toIncomeResponse(income))
}

// UpdateIncome godoc
// @Summary Update an income
// @Description Updates an income and moves the difference into the General budget. A date in another month moves the whole amount.
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Param request body IncomeRequest true "Income"
// @Success 200 {object} IncomeResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /incomes/{id} [put]
func (h *IncomeHandler) UpdateIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, ok := parseInt64Param(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	var req IncomeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	input, err := req.toInput()
	if err != nil {
		return handleServiceError(c, err, "update income")
	}

	income, err := h.incomeService.UpdateIncome(c.Request().Context(), userID, id, input)
	if err != nil {
		return handleServiceError(c, err, "update income")
	}

	return c.JSON(http.StatusOK, toIncomeResponse(income))
}

// DeleteIncome godoc
// @Summary Delete an income
// @Description Deletes an income and subtracts its amount from the General budget of its month.
// @Tags incomes
// @Security BearerAuth
// @Param id path int true "Income ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /incomes/{id} [delete]
func (h *IncomeHandler) DeleteIncome(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, ok := parseInt64Param(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid income ID", nil)
	}

	if err := h.incomeService.DeleteIncome(c.Request().Context(), userID, id); err != nil {
		return handleServiceError(c, err, "delete income")
	}

	return c.NoContent(http.StatusNoContent)
}
