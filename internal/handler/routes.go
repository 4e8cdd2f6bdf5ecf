package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
)

// Handlers groups every HTTP handler mounted under /api/v1
type Handlers struct {
	Auth      *AuthHandler
	Expense   *ExpenseHandler
	Income    *IncomeHandler
	Budget    *BudgetHandler
	Category  *CategoryHandler
	Dashboard *DashboardHandler
	Receipt   *ReceiptHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, receiptLimiter *middleware.RateLimiter, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")
	authenticate := authMiddleware.Authenticate()

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/signup", h.Auth.SignUp)
	auth.POST("/signin", h.Auth.SignIn)
	auth.POST("/password/reset", h.Auth.RequestPasswordReset)
	auth.GET("/me", h.Auth.Me, authenticate)
	auth.PUT("/password", h.Auth.UpdatePassword, authenticate)
	auth.POST("/signout", h.Auth.SignOut, authenticate)

	// Expense routes (protected)
	expenses := api.Group("/expenses")
	expenses.Use(authenticate)
	expenses.GET("", h.Expense.ListExpenses)
	expenses.POST("", h.Expense.CreateExpense)
	expenses.GET("/:id", h.Expense.GetExpense)
	expenses.PUT("/:id", h.Expense.UpdateExpense)
	expenses.DELETE("/:id", h.Expense.DeleteExpense)

	// Income routes (protected)
	incomes := api.Group("/incomes")
	incomes.Use(authenticate)
	incomes.GET("", h.Income.ListIncomes)
	incomes.POST("", h.Income.CreateIncome)
	incomes.GET("/sources", h.Income.GetSources)
	incomes.GET("/:id", h.Income.GetIncome)
	incomes.PUT("/:id", h.Income.UpdateIncome)
	incomes.DELETE("/:id", h.Income.DeleteIncome)

	// Budget routes (protected)
	budgets := api.Group("/budgets")
	budgets.Use(authenticate)
	budgets.GET("", h.Budget.ListBudgets)
	budgets.PUT("/:month", h.Budget.SetBudget)
	budgets.GET("/:month/summary", h.Budget.GetMonthSummary)
	budgets.DELETE("/:id", h.Budget.DeleteBudget)

	// Category routes (protected)
	categories := api.Group("/categories")
	categories.Use(authenticate)
	categories.GET("", h.Category.ListCategories)
	categories.POST("", h.Category.CreateCategory)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)
	categories.GET("/:id/can-delete", h.Category.CanDeleteCategory)
	categories.GET("/:id/daily", h.Category.GetCategoryDaily)

	// Dashboard routes (protected)
	api.GET("/dashboard", h.Dashboard.GetSummary, authenticate)

	// Receipt routes (protected, rate limited per user)
	receipts := api.Group("/receipts")
	receipts.Use(authenticate)
	receipts.POST("/extract", h.Receipt.ExtractReceipt, middleware.RateLimitMiddleware(receiptLimiter))

	// Event stream authenticates with the token query parameter
	e.GET("/ws", h.WebSocket.HandleWS)
}
