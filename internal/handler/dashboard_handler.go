package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
)

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// CategoryBarResponse is one category's share of spending
type CategoryBarResponse struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Color  string `json:"color"`
}

// DayBreakdownResponse is the per-category split of one day
type DayBreakdownResponse struct {
	Date  string                `json:"date"`
	Total string                `json:"total"`
	Bars  []CategoryBarResponse `json:"bars"`
}

// CalendarDayResponse is one day of the calendar view
type CalendarDayResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Total string `json:"total"`
}

// RecentExpenseResponse is an expense with its category color
type RecentExpenseResponse struct {
	ExpenseResponse
	Color string `json:"color"`
}

// DashboardSummaryResponse represents the dashboard summary in API responses
type DashboardSummaryResponse struct {
	Month          string                  `json:"month"`
	GeneralBudget  *BudgetResponse         `json:"generalBudget"`
	MonthlySpent   string                  `json:"monthlySpent"`
	Remaining      *string                 `json:"remaining"`
	BudgetExceeded bool                    `json:"budgetExceeded"`
	AllTimeTotal   string                  `json:"allTimeTotal"`
	Recent         []RecentExpenseResponse `json:"recent"`
	ByCategory     []CategoryBarResponse   `json:"byCategory"`
	Calendar       []CalendarDayResponse   `json:"calendar"`
	SelectedDay    *DayBreakdownResponse   `json:"selectedDay"`
}

func toCategoryBarResponses(bars []domain.CategoryBar) []CategoryBarResponse {
	out := make([]CategoryBarResponse, len(bars))
	for i, b := range bars {
		out[i] = CategoryBarResponse{Name: b.Name, Amount: b.Amount.StringFixed(2), Color: b.Color}
	}
	return out
}

func toDashboardSummaryResponse(s *domain.DashboardSummary) DashboardSummaryResponse {
	resp := DashboardSummaryResponse{
		Month:          s.Month,
		MonthlySpent:   s.MonthlySpent.StringFixed(2),
		BudgetExceeded: s.BudgetExceeded,
		AllTimeTotal:   s.AllTimeTotal.StringFixed(2),
		Recent:         make([]RecentExpenseResponse, len(s.Recent)),
		ByCategory:     toCategoryBarResponses(s.ByCategory),
		Calendar:       make([]CalendarDayResponse, len(s.Calendar)),
	}

	if s.GeneralBudget != nil {
		budget := toBudgetResponse(s.GeneralBudget)
		resp.GeneralBudget = &budget
	}
	if s.Remaining != nil {
		remaining := s.Remaining.StringFixed(2)
		resp.Remaining = &remaining
	}
	for i, r := range s.Recent {
		resp.Recent[i] = RecentExpenseResponse{ExpenseResponse: toExpenseResponse(r.Expense), Color: r.Color}
	}
	for i, d := range s.Calendar {
		resp.Calendar[i] = CalendarDayResponse{Date: d.Date, Count: d.Count, Total: d.Total.StringFixed(2)}
	}
	if s.SelectedDay != nil {
		resp.SelectedDay = &DayBreakdownResponse{
			Date:  s.SelectedDay.Date,
			Total: s.SelectedDay.Total.StringFixed(2),
			Bars:  toCategoryBarResponses(s.SelectedDay.Bars),
		}
	}

	return resp
}

// GetSummary godoc
// @Summary Get dashboard summary
// @Description Returns the month's spending against the General budget, the all-time total, recent expenses and the calendar. day adds that day's category breakdown.
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM), defaults to the current month"
// @Param day query string false "Selected day (YYYY-MM-DD)"
// @Success 200 {object} DashboardSummaryResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /dashboard [get]
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)

	summary, err := h.dashboardService.GetSummary(c.Request().Context(), userID, c.QueryParam("month"), c.QueryParam("day"))
	if err != nil {
		return handleServiceError(c, err, "get dashboard summary")
	}

	return c.JSON(http.StatusOK, toDashboardSummaryResponse(summary))
}
