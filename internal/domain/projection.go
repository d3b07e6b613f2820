package domain

import "github.com/shopspring/decimal"

// ============================================================
// Projections (what-if scenarios)
// ============================================================

// AccountOverride carries the per-projection adjustments for one account.
type AccountOverride struct {
	ReturnRate decimal.Decimal `json:"return_rate"` // nominal annual, percent
}

// Milestone marks a labelled year on a projection's chart.
type Milestone struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Year  int    `json:"year"`
}

// Projection is one named what-if scenario. All projections of a portfolio
// share the same accounts and actual-value history; each carries its own
// transfer rules, inflation assumption and return-rate overrides.
type Projection struct {
	ID               string                     `json:"id"`
	Name             string                     `json:"name"`
	InflationRate    decimal.Decimal            `json:"inflation_rate"` // annual, percent
	TransferRules    []TransferRule             `json:"transfer_rules"`
	AccountOverrides map[string]AccountOverride `json:"account_overrides,omitempty"`
	Milestones       []Milestone                `json:"milestones,omitempty"`
}

// Clone returns a deep copy of the projection. IDs are preserved; callers
// duplicating a scenario assign fresh ones afterwards.
func (p Projection) Clone() Projection {
	out := p
	out.TransferRules = make([]TransferRule, len(p.TransferRules))
	for i, r := range p.TransferRules {
		out.TransferRules[i] = r.Clone()
	}
	if p.AccountOverrides != nil {
		out.AccountOverrides = make(map[string]AccountOverride, len(p.AccountOverrides))
		for id, ov := range p.AccountOverrides {
			out.AccountOverrides[id] = ov
		}
	}
	if p.Milestones != nil {
		out.Milestones = append([]Milestone(nil), p.Milestones...)
	}
	return out
}

// RuleByID returns a pointer into the projection's rule slice, or nil.
func (p *Projection) RuleByID(id string) *TransferRule {
	for i := range p.TransferRules {
		if p.TransferRules[i].ID == id {
			return &p.TransferRules[i]
		}
	}
	return nil
}

// ProjectionRequest is the payload for creating or renaming a projection.
type ProjectionRequest struct {
	Name          string           `json:"name"`
	InflationRate *decimal.Decimal `json:"inflation_rate,omitempty"`
}

// MilestoneRequest is the payload for adding a milestone.
type MilestoneRequest struct {
	Label string `json:"label"`
	Year  int    `json:"year"`
}
