package contract

import (
	"time"

	"github.com/erp/billing/internal/domain/shared"
)

// RecurringUnit is the unit of a group's billing cadence
type RecurringUnit string

const (
	UnitDay   RecurringUnit = "day"
	UnitWeek  RecurringUnit = "week"
	UnitMonth RecurringUnit = "month"
	UnitYear  RecurringUnit = "year"
)

// ErrInvalidRecurringUnit is returned for units outside day|week|month|year
var ErrInvalidRecurringUnit = shared.NewDomainError("INVALID_RECURRING_UNIT", "Recurring unit must be one of day, week, month, year")

// IsValid reports whether u is a known unit
func (u RecurringUnit) IsValid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// AddMonths adds n calendar months, clamping the day to the end of the target
// month (Jan 31 + 1 month = Feb 28) instead of overflowing like time.AddDate.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// Step advances a date by value units
func Step(t time.Time, unit RecurringUnit, value int) time.Time {
	day := shared.Day(t)
	switch unit {
	case UnitDay:
		return day.AddDate(0, 0, value)
	case UnitWeek:
		return day.AddDate(0, 0, 7*value)
	case UnitYear:
		return AddMonths(day, 12*value)
	default:
		return AddMonths(day, value)
	}
}
