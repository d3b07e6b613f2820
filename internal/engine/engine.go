// Package engine implements the projection calculation: the year-by-year,
// month-by-month simulation that turns a frozen portfolio snapshot and one
// scenario into a net-worth time series.
//
// The engine is a pure function of its inputs: it performs no I/O, keeps no
// state between calls, and mutates only private working copies of balances
// and cost bases. Independent calls may run concurrently.
package engine

import (
	"math"
	"sort"
	"time"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/port"

	"github.com/shopspring/decimal"
)

// Options selects what a calculation covers.
type Options struct {
	// Selection limits the output to the chosen account ids.
	// Nil means all accounts.
	Selection map[string]bool

	// IncludeAccounts adds the per-account breakdown to every YearPoint.
	IncludeAccounts bool

	// Now anchors year zero. Zero value means time.Now(); tests pin it.
	Now time.Time
}

// Engine runs projection calculations against a frozen currency-conversion
// snapshot.
type Engine struct {
	fx port.Converter
}

// New creates an engine bound to a converter snapshot.
func New(fx port.Converter) *Engine {
	return &Engine{fx: fx}
}

// Calculate produces the ordered year series for one scenario: historical
// years carrying user-observed values first, then the current-year snapshot
// (year index 0, no growth), then one simulated point per projection year.
// All output amounts are in base currency.
func (e *Engine) Calculate(view *domain.ProjectionView, opts Options) []domain.YearPoint {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	currentYear := now.Year()

	selected := func(id string) bool {
		return opts.Selection == nil || opts.Selection[id]
	}

	accounts := make(map[string]domain.Account, len(view.Accounts))
	st := &yearState{
		balances: make(map[string]decimal.Decimal, len(view.Accounts)),
		bases:    make(map[string]decimal.Decimal, len(view.Accounts)),
	}
	rates := make(map[string]decimal.Decimal, len(view.Accounts))
	for _, a := range view.Accounts {
		accounts[a.ID] = a
		st.balances[a.ID] = e.fx.ToBase(a.Balance, a.Currency)
		st.bases[a.ID] = e.fx.ToBase(a.CostBasis, a.Currency)
		rates[a.ID] = monthlyRate(a.ReturnRate, view.InflationRate)
	}

	// Observed values arrive in the account's currency; convert once.
	actuals := make(map[string]map[int]decimal.Decimal, len(view.Actuals))
	for id, years := range view.Actuals {
		a, ok := accounts[id]
		if !ok {
			continue
		}
		converted := make(map[int]decimal.Decimal, len(years))
		for year, v := range years {
			converted[year] = e.fx.ToBase(v, a.Currency)
		}
		actuals[id] = converted
	}

	points := e.historicalPoints(actuals, selected, currentYear, opts.IncludeAccounts)

	noCompound := NoCompoundAccounts(view.Rules)

	for yi := 0; yi <= view.ProjectionYears; yi++ {
		year := currentYear + yi

		yearStart := make(map[string]decimal.Decimal, len(st.balances))
		for id, b := range st.balances {
			yearStart[id] = b
		}
		st.earnings = make(map[string]decimal.Decimal, len(view.Accounts))
		st.transfers = make(map[string]decimal.Decimal, len(view.Accounts))
		gains := make(map[string]decimal.Decimal, len(view.Accounts))

		if yi > 0 {
			for month := 1; month <= 12; month++ {
				for _, a := range view.Accounts {
					rate := rates[a.ID]
					if rate.IsZero() {
						continue
					}
					growthBase := st.balances[a.ID]
					if noCompound[a.ID] {
						// Earnings are swept out each period, so the
						// principal must not compound on them.
						growthBase = yearStart[a.ID]
					}
					gain := growthBase.Mul(rate)
					st.balances[a.ID] = st.balances[a.ID].Add(gain)
					st.earnings[a.ID] = st.earnings[a.ID].Add(gain)
					gains[a.ID] = gains[a.ID].Add(gain)
				}
				for _, r := range view.Rules {
					if ShouldFire(r, year, month, true) {
						e.applyTransfer(r, accounts, st, view.TaxRate)
					}
				}
			}
			for _, r := range view.Rules {
				if ShouldFire(r, year, 12, false) {
					e.applyTransfer(r, accounts, st, view.TaxRate)
				}
			}
		}

		pt := domain.YearPoint{Year: year}
		if opts.IncludeAccounts {
			pt.Accounts = make(map[string]domain.AccountYear)
		}

		projected := decimal.Zero
		afterTax := decimal.Zero
		totalEarnings := decimal.Zero
		actualTotal := decimal.Zero
		hasActual := false

		for _, a := range view.Accounts {
			if !selected(a.ID) {
				continue
			}
			value := st.balances[a.ID]
			projected = projected.Add(value.Round(0))
			totalEarnings = totalEarnings.Add(gains[a.ID])
			if yi > 0 {
				// Rounded per account like the pre-tax side, so the two
				// totals only diverge on a real haircut.
				afterTax = afterTax.Add(AfterTaxValue(value, st.bases[a.ID], a.TaxTreatment, view.TaxRate).Round(0))
			}

			var observed *decimal.Decimal
			if v, ok := actuals[a.ID][year]; ok {
				obs := v
				observed = &obs
				actualTotal = actualTotal.Add(v)
				hasActual = true
			}

			if opts.IncludeAccounts {
				pt.Accounts[a.ID] = domain.AccountYear{
					Balance:   value.Round(0),
					Growth:    value.Sub(yearStart[a.ID]),
					Transfers: st.transfers[a.ID],
					Actual:    observed,
				}
			}
		}

		total := projected
		pt.Projected = &total
		pt.TotalEarnings = totalEarnings.Round(0)
		if yi > 0 && !afterTax.Equal(projected) {
			// The after-tax series is only worth showing when the haircut
			// actually changes something. Year zero is the present-day
			// snapshot and gets no haircut at all.
			at := afterTax
			pt.ProjectedAfterTax = &at
		}
		if hasActual {
			obs := actualTotal.Round(0)
			pt.Actual = &obs
		}
		points = append(points, pt)
	}

	return points
}

// historicalPoints emits one point per past year that has at least one
// observation among the selected accounts, strictly before the current year
// and ordered by year. Projected stays nil on these rows.
func (e *Engine) historicalPoints(actuals map[string]map[int]decimal.Decimal, selected func(string) bool, currentYear int, includeAccounts bool) []domain.YearPoint {
	var years []int
	seen := map[int]bool{}
	for id, byYear := range actuals {
		if !selected(id) {
			continue
		}
		for year := range byYear {
			if year < currentYear && !seen[year] {
				seen[year] = true
				years = append(years, year)
			}
		}
	}
	sort.Ints(years)

	points := make([]domain.YearPoint, 0, len(years))
	for _, year := range years {
		pt := domain.YearPoint{Year: year}
		if includeAccounts {
			pt.Accounts = make(map[string]domain.AccountYear)
		}
		total := decimal.Zero
		for id, byYear := range actuals {
			if !selected(id) {
				continue
			}
			v, ok := byYear[year]
			if !ok {
				continue
			}
			total = total.Add(v)
			if includeAccounts {
				obs := v
				pt.Accounts[id] = domain.AccountYear{Actual: &obs}
			}
		}
		rounded := total.Round(0)
		pt.Actual = &rounded
		points = append(points, pt)
	}
	return points
}

// monthlyRate turns a nominal annual return and an inflation assumption
// (both in percent) into a real monthly compounding rate: Fisher relation
// first, then the twelfth root. Degenerate inputs yield zero growth rather
// than propagating NaN through the simulation.
func monthlyRate(nominalPct, inflationPct decimal.Decimal) decimal.Decimal {
	nominal, _ := nominalPct.Float64()
	inflation, _ := inflationPct.Float64()

	denom := 1 + inflation/100
	if denom == 0 {
		return decimal.Zero
	}
	realAnnual := (1+nominal/100)/denom - 1

	monthly := math.Pow(1+realAnnual, 1.0/12) - 1
	if math.IsNaN(monthly) || math.IsInf(monthly, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(monthly)
}
