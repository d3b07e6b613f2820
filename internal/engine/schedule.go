package engine

import "github.com/arassch/networth-planner/internal/domain"

// ShouldFire decides whether a rule applies at (year, month). The engine
// evaluates rules in two phases per simulated year: a monthly phase after
// each month's growth, and an annual phase after month 12. monthlyPhase
// selects which phase is being evaluated, so monthly and annual rules never
// fire twice for the same period.
//
// One-time rules fire in the monthly phase of the exact start month and
// ignore End. Recurring rules without a start date never fire.
func ShouldFire(r domain.TransferRule, year, month int, monthlyPhase bool) bool {
	switch r.Frequency {
	case domain.FreqOneTime:
		return monthlyPhase && r.Start != nil &&
			r.Start.Year == year && r.Start.Month == month

	case domain.FreqMonthly:
		return monthlyPhase && inWindow(r, year, month)

	case domain.FreqAnnual:
		return !monthlyPhase && inWindow(r, year, month)

	case domain.FreqEveryXYears:
		if monthlyPhase || r.IntervalYears < 1 || r.Start == nil {
			return false
		}
		if !inWindow(r, year, month) {
			return false
		}
		// The start year is the reference for the interval grid.
		return (year-r.Start.Year)%r.IntervalYears == 0
	}
	return false
}

// inWindow checks the [Start, End] window at month granularity.
func inWindow(r domain.TransferRule, year, month int) bool {
	if r.Start == nil {
		return false
	}
	cur := domain.YearMonth{Year: year, Month: month}
	if cur.Cmp(*r.Start) < 0 {
		return false
	}
	if r.End != nil && cur.Cmp(*r.End) > 0 {
		return false
	}
	return true
}
