package util

import (
	"time"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
)

// MonthPrefix returns the YYYY-MM month of a YYYY-MM-DD date string.
// Strings shorter than seven characters are returned unchanged.
func MonthPrefix(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// ParseMonth parses a YYYY-MM string into the first day of that month in UTC.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.MonthLayout, s, time.UTC)
	if err != nil || len(s) != len(domain.MonthLayout) {
		return time.Time{}, domain.ErrInvalidMonth
	}
	return t, nil
}

// ParseDate parses a YYYY-MM-DD string in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateLayout, s, time.UTC)
	if err != nil || len(s) != len(domain.DateLayout) {
		return time.Time{}, domain.ErrInvalidDate
	}
	return t, nil
}

// CurrentMonth returns now as YYYY-MM.
func CurrentMonth(now time.Time) string {
	return now.Format(domain.MonthLayout)
}

// DaysInMonth returns the number of days for a given year and month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of next month is the last day of this month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDays returns every calendar day of a YYYY-MM month.
func MonthDays(month string) ([]time.Time, error) {
	start, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}
	n := DaysInMonth(start.Year(), start.Month())
	days := make([]time.Time, n)
	for i := range n {
		days[i] = start.AddDate(0, 0, i)
	}
	return days, nil
}
