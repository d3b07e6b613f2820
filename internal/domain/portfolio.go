package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Portfolio (shared root)
// ============================================================

// FITarget is the financial-independence goal, in base currency.
type FITarget struct {
	Enabled bool            `json:"enabled"`
	Amount  decimal.Decimal `json:"amount"`
}

// Portfolio is the shared root aggregate: accounts and observed history are
// common to every projection; ProjectionYears, TaxRate and BaseCurrency apply
// to all of them. Projections is never empty and ActiveProjectionID always
// resolves to a member (falling back to the first).
//
// ActualValues maps account id -> stored date key -> observed value in the
// account's currency. Keys are absolute years ("2023"), full dates
// ("2023-06-30"), or (a legacy artifact) small integers interpreted as
// year offsets from now. NormalizeActualYears resolves them once at the
// calculation boundary.
type Portfolio struct {
	ID                 string                                `json:"id"`
	Accounts           []Account                             `json:"accounts"`
	ActualValues       map[string]map[string]decimal.Decimal `json:"actual_values,omitempty"`
	ProjectionYears    int                                   `json:"projection_years"`
	TaxRate            decimal.Decimal                       `json:"tax_rate"` // percent
	BaseCurrency       string                                `json:"base_currency"`
	FITarget           FITarget                              `json:"fi_target"`
	Projections        []Projection                          `json:"projections"`
	ActiveProjectionID string                                `json:"active_projection_id"`

	// Revision is bumped on every mutation; calculation caches key on it.
	Revision int64 `json:"revision"`
}

// AccountByID returns a pointer into the account slice, or nil.
func (p *Portfolio) AccountByID(id string) *Account {
	for i := range p.Accounts {
		if p.Accounts[i].ID == id {
			return &p.Accounts[i]
		}
	}
	return nil
}

// ProjectionByID returns a pointer into the projection slice, or nil.
func (p *Portfolio) ProjectionByID(id string) *Projection {
	for i := range p.Projections {
		if p.Projections[i].ID == id {
			return &p.Projections[i]
		}
	}
	return nil
}

// ActiveProjection resolves the active scenario, falling back to the first
// projection when the stored id is stale. Returns nil only for a portfolio
// that violates the never-empty invariant.
func (p *Portfolio) ActiveProjection() *Projection {
	if pr := p.ProjectionByID(p.ActiveProjectionID); pr != nil {
		return pr
	}
	if len(p.Projections) > 0 {
		return &p.Projections[0]
	}
	return nil
}

// Clone returns a deep copy of the portfolio, so callers can hand the engine
// a frozen snapshot while the original keeps being edited.
func (p *Portfolio) Clone() *Portfolio {
	out := *p
	out.Accounts = append([]Account(nil), p.Accounts...)
	out.Projections = make([]Projection, len(p.Projections))
	for i, pr := range p.Projections {
		out.Projections[i] = pr.Clone()
	}
	if p.ActualValues != nil {
		out.ActualValues = make(map[string]map[string]decimal.Decimal, len(p.ActualValues))
		for id, years := range p.ActualValues {
			m := make(map[string]decimal.Decimal, len(years))
			for k, v := range years {
				m[k] = v
			}
			out.ActualValues[id] = m
		}
	}
	return &out
}

// NormalizeActualYears resolves one account's stored actual-value keys to
// absolute years. Keys parse as integers or as "YYYY-MM-DD" dates; integer
// keys below 1900 are the legacy year-offset convention and are resolved
// against now. Unparseable keys are dropped rather than corrupting the run.
func NormalizeActualYears(raw map[string]decimal.Decimal, now time.Time) map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal, len(raw))
	for key, value := range raw {
		if n, err := strconv.Atoi(key); err == nil {
			if n >= 1900 {
				out[n] = value
			} else {
				out[now.Year()+n] = value
			}
			continue
		}
		if t, err := time.Parse("2006-01-02", key); err == nil {
			out[t.Year()] = value
		}
	}
	return out
}

// SettingsRequest is the payload for updating portfolio-wide settings.
// Nil fields are left unchanged.
type SettingsRequest struct {
	ProjectionYears *int             `json:"projection_years,omitempty"`
	TaxRate         *decimal.Decimal `json:"tax_rate,omitempty"`
	BaseCurrency    *string          `json:"base_currency,omitempty"`
	FITarget        *FITarget        `json:"fi_target,omitempty"`
}
