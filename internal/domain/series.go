package domain

import "github.com/shopspring/decimal"

// ============================================================
// Output time series
// ============================================================

// AccountYear is the per-account breakdown inside a YearPoint.
type AccountYear struct {
	Balance   decimal.Decimal  `json:"balance"`
	Growth    decimal.Decimal  `json:"growth"`
	Transfers decimal.Decimal  `json:"transfers"`
	Actual    *decimal.Decimal `json:"actual,omitempty"`
}

// YearPoint is one row of the projected series. Historical rows carry only
// Actual (Projected nil); forward rows always carry Projected, with
// ProjectedAfterTax set only when the tax haircut actually changes the total
// and Actual set when an observation exists for that exact year. Amounts are
// in the portfolio's base currency, rounded to whole units.
type YearPoint struct {
	Year              int                    `json:"year"`
	Projected         *decimal.Decimal       `json:"projected,omitempty"`
	ProjectedAfterTax *decimal.Decimal       `json:"projected_after_tax,omitempty"`
	TotalEarnings     decimal.Decimal        `json:"total_earnings"`
	Actual            *decimal.Decimal       `json:"actual,omitempty"`
	Accounts          map[string]AccountYear `json:"accounts,omitempty"`
}

// SeriesResult is the calculation response handed to the presentation layer.
type SeriesResult struct {
	ProjectionID   string      `json:"projection_id"`
	ProjectionName string      `json:"projection_name"`
	Points         []YearPoint `json:"points"`
	Milestones     []Milestone `json:"milestones,omitempty"`

	// FIYear is the first projected year meeting the portfolio's FI target,
	// nil when the target is disabled or never reached.
	FIYear *int `json:"fi_year,omitempty"`
}

// ProjectionComparison is one row of the multi-scenario comparison.
type ProjectionComparison struct {
	ProjectionID   string           `json:"projection_id"`
	ProjectionName string           `json:"projection_name"`
	FinalYear      int              `json:"final_year"`
	FinalProjected decimal.Decimal  `json:"final_projected"`
	FinalAfterTax  *decimal.Decimal `json:"final_after_tax,omitempty"`
	FIYear         *int             `json:"fi_year,omitempty"`
}
