// Package aggregate holds the pure grouping and summing helpers behind the
// dashboard, calendar, history and category charts.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/util"
)

var hundred = decimal.NewFromInt(100)

// GroupByDay buckets expenses by YYYY-MM-DD, keeping input order inside each bucket.
func GroupByDay(expenses []*domain.Expense) map[string][]*domain.Expense {
	grouped := make(map[string][]*domain.Expense)
	for _, e := range expenses {
		day := e.Day()
		grouped[day] = append(grouped[day], e)
	}
	return grouped
}

// categoryTotals sums the expenses accepted by keep per category. Names that
// differ only in case or surrounding spaces share one total, labelled with the
// user's stored spelling when the category still exists.
func categoryTotals(expenses []*domain.Expense, categories []domain.Category, keep func(*domain.Expense) bool) ([]domain.CategoryBar, decimal.Decimal) {
	total := decimal.Zero
	index := make(map[string]int)
	var bars []domain.CategoryBar
	for _, e := range expenses {
		if !keep(e) {
			continue
		}
		total = total.Add(e.Amount)

		key := domain.CategoryKey(e.Category)
		i, seen := index[key]
		if !seen {
			i = len(bars)
			index[key] = i
			bars = append(bars, domain.CategoryBar{
				Name:   domain.CategoryLabel(categories, e.Category),
				Amount: decimal.Zero,
				Color:  domain.ColorFor(categories, e.Category),
			})
		}
		bars[i].Amount = bars[i].Amount.Add(e.Amount)
	}
	if bars == nil {
		bars = []domain.CategoryBar{}
	}
	sortBars(bars)
	return bars, total
}

// DayBreakdown sums a single day's expenses per category. Bars are sorted
// by amount, largest first. Empty category names are shown as uncategorized.
func DayBreakdown(expenses []*domain.Expense, day string, categories []domain.Category) domain.DayBreakdown {
	bars, total := categoryTotals(expenses, categories, func(e *domain.Expense) bool { return e.Day() == day })
	return domain.DayBreakdown{Date: day, Total: total, Bars: bars}
}

// MonthlyTotal sums the expenses whose date falls in the YYYY-MM month.
func MonthlyTotal(expenses []*domain.Expense, month string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if strings.HasPrefix(e.Day(), month) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// TotalAmount sums every expense.
func TotalAmount(expenses []*domain.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// SpentByCategory sums a month's expenses per category, keyed by domain.CategoryKey.
func SpentByCategory(expenses []*domain.Expense, month string) map[string]decimal.Decimal {
	spent := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		if !strings.HasPrefix(e.Day(), month) {
			continue
		}
		key := domain.CategoryKey(e.Category)
		spent[key] = spent[key].Add(e.Amount)
	}
	return spent
}

// CategoryBars turns a month's per-category totals into colored bars sorted by amount.
func CategoryBars(expenses []*domain.Expense, month string, categories []domain.Category) []domain.CategoryBar {
	bars, _ := categoryTotals(expenses, categories, func(e *domain.Expense) bool {
		return strings.HasPrefix(e.Day(), month)
	})
	return bars
}

// DailySeries returns one point per calendar day of month, zero when nothing was spent.
func DailySeries(expenses []*domain.Expense, month string) ([]domain.DailyPoint, error) {
	days, err := util.MonthDays(month)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		byDay[e.Day()] = byDay[e.Day()].Add(e.Amount)
	}

	points := make([]domain.DailyPoint, len(days))
	for i, d := range days {
		key := d.Format(domain.DateLayout)
		points[i] = domain.DailyPoint{Date: key, Day: d.Day(), Amount: byDay[key]}
	}
	return points, nil
}

// Calendar returns per-day counts and totals for every day of month.
func Calendar(expenses []*domain.Expense, month string) ([]domain.CalendarDay, error) {
	days, err := util.MonthDays(month)
	if err != nil {
		return nil, err
	}
	grouped := GroupByDay(expenses)

	calendar := make([]domain.CalendarDay, len(days))
	for i, d := range days {
		key := d.Format(domain.DateLayout)
		calendar[i] = domain.CalendarDay{Date: key, Count: len(grouped[key]), Total: TotalAmount(grouped[key])}
	}
	return calendar, nil
}

// FilterExpenses keeps expenses whose description or category contains query,
// case-insensitively, and whose date equals day when day is non-empty.
func FilterExpenses(expenses []*domain.Expense, query, day string) []*domain.Expense {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*domain.Expense, 0, len(expenses))
	for _, e := range expenses {
		if day != "" && e.Day() != day {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Description), q) &&
			!strings.Contains(strings.ToLower(e.Category), q) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterIncome keeps incomes whose description or source contains query, case-insensitively.
func FilterIncome(incomes []*domain.Income, query string) []*domain.Income {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return incomes
	}
	out := make([]*domain.Income, 0, len(incomes))
	for _, i := range incomes {
		if strings.Contains(strings.ToLower(i.Description), q) || strings.Contains(strings.ToLower(i.Source), q) {
			out = append(out, i)
		}
	}
	return out
}

// Progress computes spent against a budget total.
// Above 100% is exceeded, above 80% is a warning. A zero total reports 0%.
func Progress(budget *domain.Budget, spent decimal.Decimal) *domain.BudgetProgress {
	p := &domain.BudgetProgress{
		Budget:     budget,
		Spent:      spent,
		Remaining:  budget.Amount.Sub(spent),
		Percentage: decimal.Zero,
		Status:     domain.BudgetStatusOK,
	}
	if budget.Amount.IsPositive() {
		p.Percentage = spent.Div(budget.Amount).Mul(hundred).Round(2)
	}
	switch {
	case p.Percentage.GreaterThan(hundred):
		p.Status = domain.BudgetStatusExceeded
	case p.Percentage.GreaterThan(decimal.NewFromInt(80)):
		p.Status = domain.BudgetStatusWarning
	}
	return p
}

func sortBars(bars []domain.CategoryBar) {
	sort.SliceStable(bars, func(i, j int) bool {
		if !bars[i].Amount.Equal(bars[j].Amount) {
			return bars[i].Amount.GreaterThan(bars[j].Amount)
		}
		return bars[i].Name < bars[j].Name
	})
}
