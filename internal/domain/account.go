package domain

import "github.com/shopspring/decimal"

// ============================================================
// Accounts
// ============================================================

// AccountType classifies an account.
type AccountType string

const (
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
)

// Valid reports whether the account type is one of the known values.
func (t AccountType) Valid() bool {
	return t == AccountInvestment || t == AccountCash
}

// TaxTreatment selects how an account's value is taxed on withdrawal.
type TaxTreatment string

const (
	TaxTaxable  TaxTreatment = "taxable"  // only embedded gain above cost basis is taxed
	TaxDeferred TaxTreatment = "deferred" // whole value taxed as ordinary income
	TaxRoth     TaxTreatment = "roth"     // fully tax-free
)

// Valid reports whether the tax treatment is one of the known values.
func (t TaxTreatment) Valid() bool {
	return t == TaxTaxable || t == TaxDeferred || t == TaxRoth
}

// Account represents a single investment or cash account in the portfolio.
// CostBasis is the portion of the balance treated as already-taxed principal;
// it defaults to the full balance when the user doesn't set it explicitly.
// Accounts are shared across all projections of a portfolio and are never
// mutated during a calculation run (the engine works on private copies).
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         AccountType     `json:"type"`
	Balance      decimal.Decimal `json:"balance"`
	Currency     string          `json:"currency"`
	ReturnRate   decimal.Decimal `json:"return_rate"` // nominal annual, percent
	TaxTreatment TaxTreatment    `json:"tax_treatment"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
}

// AccountRequest is the payload for creating or updating an account.
type AccountRequest struct {
	Name         string           `json:"name"`
	Type         AccountType      `json:"type"`
	Balance      decimal.Decimal  `json:"balance"`
	Currency     string           `json:"currency,omitempty"`
	ReturnRate   decimal.Decimal  `json:"return_rate"`
	TaxTreatment TaxTreatment     `json:"tax_treatment"`
	CostBasis    *decimal.Decimal `json:"cost_basis,omitempty"`
}
