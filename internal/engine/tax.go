package engine

import (
	"github.com/arassch/networth-planner/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// AfterTaxValue estimates what an account would be worth after taxes on
// withdrawal. Deliberately simplistic estimators, not tax advice:
//
//   - roth: tax-free, value unchanged
//   - deferred: flat haircut of taxRate on the whole value
//   - taxable: only the embedded gain above cost basis is taxed
//
// taxRate is a percentage (20 means 20%).
func AfterTaxValue(value, costBasis decimal.Decimal, treatment domain.TaxTreatment, taxRate decimal.Decimal) decimal.Decimal {
	switch treatment {
	case domain.TaxRoth:
		return value
	case domain.TaxDeferred:
		return value.Mul(hundred.Sub(taxRate)).Div(hundred)
	default:
		gain := value.Sub(costBasis)
		if gain.IsNegative() {
			gain = decimal.Zero
		}
		return value.Sub(gain.Mul(taxRate).Div(hundred))
	}
}
