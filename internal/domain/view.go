package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// ProjectionView (engine input)
// ============================================================

// ProjectionView is the read-only engine input derived from a portfolio and
// one of its projections: account return rates already overridden, actual
// years already normalized. Rebuilt for every calculation, never persisted.
type ProjectionView struct {
	ProjectionID    string
	ProjectionName  string
	Accounts        []Account
	Rules           []TransferRule
	InflationRate   decimal.Decimal // annual, percent
	TaxRate         decimal.Decimal // percent
	BaseCurrency    string
	ProjectionYears int

	// Actuals maps account id -> absolute year -> observed value in the
	// account's own currency.
	Actuals map[string]map[int]decimal.Decimal
}

// BuildProjectionView assembles the engine input for one scenario. The
// portfolio is not retained; everything the engine touches is copied.
func BuildProjectionView(p *Portfolio, projectionID string, now time.Time) (*ProjectionView, error) {
	proj := p.ProjectionByID(projectionID)
	if proj == nil {
		return nil, &ErrNotFound{Resource: "projection", ID: projectionID}
	}

	accounts := make([]Account, len(p.Accounts))
	for i, a := range p.Accounts {
		if ov, ok := proj.AccountOverrides[a.ID]; ok {
			a.ReturnRate = ov.ReturnRate
		}
		accounts[i] = a
	}

	rules := make([]TransferRule, len(proj.TransferRules))
	for i, r := range proj.TransferRules {
		rules[i] = r.Clone()
	}

	actuals := make(map[string]map[int]decimal.Decimal, len(p.ActualValues))
	for id, raw := range p.ActualValues {
		if len(raw) == 0 {
			continue
		}
		actuals[id] = NormalizeActualYears(raw, now)
	}

	return &ProjectionView{
		ProjectionID:    proj.ID,
		ProjectionName:  proj.Name,
		Accounts:        accounts,
		Rules:           rules,
		InflationRate:   proj.InflationRate,
		TaxRate:         p.TaxRate,
		BaseCurrency:    p.BaseCurrency,
		ProjectionYears: p.ProjectionYears,
		Actuals:         actuals,
	}, nil
}
