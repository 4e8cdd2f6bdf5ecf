package domain

import "github.com/shopspring/decimal"

// RecentExpensesLimit is how many expenses the dashboard lists.
const RecentExpensesLimit = 5

// CategoryBar is one category's share of a day or month.
type CategoryBar struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Color  string          `json:"color"`
}

// DayBreakdown is the per-category split of a single day.
type DayBreakdown struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Bars  []CategoryBar   `json:"bars"`
}

// DailyPoint is one calendar day of a month series.
type DailyPoint struct {
	Date   string          `json:"date"`
	Day    int             `json:"day"`
	Amount decimal.Decimal `json:"amount"`
}

// CalendarDay holds activity for one day of the calendar view.
type CalendarDay struct {
	Date  string          `json:"date"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// RecentExpense is an expense decorated with its category color.
type RecentExpense struct {
	Expense *Expense `json:"expense"`
	Color   string   `json:"color"`
}

// DashboardSummary contains the main dashboard metrics for one month.
type DashboardSummary struct {
	Month          string           `json:"month"`
	GeneralBudget  *Budget          `json:"generalBudget"`
	MonthlySpent   decimal.Decimal  `json:"monthlySpent"`
	Remaining      *decimal.Decimal `json:"remaining"`
	BudgetExceeded bool             `json:"budgetExceeded"`
	AllTimeTotal   decimal.Decimal  `json:"allTimeTotal"`
	Recent         []RecentExpense  `json:"recent"`
	ByCategory     []CategoryBar    `json:"byCategory"`
	Calendar       []CalendarDay    `json:"calendar"`
	SelectedDay    *DayBreakdown    `json:"selectedDay"`
}

// CategoryDetail is a single category's spending for one month.
type CategoryDetail struct {
	Category Category        `json:"category"`
	Month    string          `json:"month"`
	Total    decimal.Decimal `json:"total"`
	Daily    []DailyPoint    `json:"daily"`
}
