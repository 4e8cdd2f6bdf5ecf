package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService  *service.CategoryService
	dashboardService *service.DashboardService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService, dashboardService *service.DashboardService) *CategoryHandler {
	return &CategoryHandler{
		categoryService:  categoryService,
		dashboardService: dashboardService,
	}
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	Name  string `json:"name" validate:"notblank,max=50"`
	Color string `json:"color" validate:"required"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Hex          string `json:"hex"`
	IsPredefined bool   `json:"isPredefined"`
}

// CanDeleteResponse represents the usage check of a category
type CanDeleteResponse struct {
	Category     CategoryResponse `json:"category"`
	CanDelete    bool             `json:"canDelete"`
	IsPredefined bool             `json:"isPredefined"`
	ExpenseCount int64            `json:"expenseCount"`
}

// DailyPointResponse is one day of a month series
type DailyPointResponse struct {
	Date   string `json:"date"`
	Day    int    `json:"day"`
	Amount string `json:"amount"`
}

// CategoryDetailResponse represents a category's spending in a month
type CategoryDetailResponse struct {
	Category CategoryResponse     `json:"category"`
	Month    string               `json:"month"`
	Total    string               `json:"total"`
	Daily    []DailyPointResponse `json:"daily"`
}

func toCategoryResponse(c domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Color:        string(c.Color),
		Hex:          c.Color.Hex(),
		IsPredefined: c.IsPredefined,
	}
}

func toCategoryResponses(categories []domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = toCategoryResponse(c)
	}
	return out
}

// ListCategories godoc
// @Summary List categories
// @Description Returns the user's categories. Users without a stored list get the predefined set.
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} CategoryResponse
// @Failure 401 {object} ProblemDetails
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)

	categories, err := h.categoryService.ListCategories(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, "list categories")
	}

	return c.JSON(http.StatusOK, toCategoryResponses(categories))
}

// CreateCategory godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "Category"
// @Success 201 {object} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), userID, service.CategoryInput{
		Name:  req.Name,
		Color: domain.Color(req.Color),
	})
	if err != nil {
		return handleServiceError(c, err, "create category")
	}

	return c.JSON(http.StatusCreated, toCategoryResponse(*category))
}

// UpdateCategory godoc
// @Summary Update a category
// @Description Renames or recolors a category. Predefined categories can only change color.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param request body CategoryRequest true "Category"
// @Success 200 {object} CategoryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), userID, c.Param("id"), service.CategoryInput{
		Name:  req.Name,
		Color: domain.Color(req.Color),
	})
	if err != nil {
		return handleServiceError(c, err, "update category")
	}

	return c.JSON(http.StatusOK, toCategoryResponse(*category))
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Removes a user category. Expenses keep the category name.
// @Tags categories
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 204
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	if err := h.categoryService.DeleteCategory(c.Request().Context(), userID, c.Param("id")); err != nil {
		return handleServiceError(c, err, "delete category")
	}

	return c.NoContent(http.StatusNoContent)
}

// CanDeleteCategory godoc
// @Summary Check whether a category can be deleted
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} CanDeleteResponse
// @Failure 404 {object} ProblemDetails
// @Router /categories/{id}/can-delete [get]
func (h *CategoryHandler) CanDeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)

	usage, err := h.categoryService.CanDelete(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return handleServiceError(c, err, "check category usage")
	}

	return c.JSON(http.StatusOK, CanDeleteResponse{
		Category:     toCategoryResponse(usage.Category),
		CanDelete:    usage.CanDelete,
		IsPredefined: usage.IsPredefined,
		ExpenseCount: usage.ExpenseCount,
	})
}

// GetCategoryDaily godoc
// @Summary Daily spending of a category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param month query string false "Month (YYYY-MM), defaults to the current month"
// @Success 200 {object} CategoryDetailResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /categories/{id}/daily [get]
func (h *CategoryHandler) GetCategoryDaily(c echo.Context) error {
	userID := middleware.GetUserID(c)

	detail, err := h.dashboardService.GetCategoryDetail(c.Request().Context(), userID, c.Param("id"), c.QueryParam("month"))
	if err != nil {
		return handleServiceError(c, err, "get category detail")
	}

	resp := CategoryDetailResponse{
		Category: toCategoryResponse(detail.Category),
		Month:    detail.Month,
		Total:    detail.Total.StringFixed(2),
		Daily:    make([]DailyPointResponse, len(detail.Daily)),
	}
	for i, p := range detail.Daily {
		resp.Daily[i] = DailyPointResponse{Date: p.Date, Day: p.Day, Amount: p.Amount.StringFixed(2)}
	}

	return c.JSON(http.StatusOK, resp)
}
