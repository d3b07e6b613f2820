package engine

import (
	"github.com/arassch/networth-planner/internal/domain"

	"github.com/shopspring/decimal"
)

// yearState is the mutable working state threaded through one simulated
// year. All amounts are in base currency. It is private to a single
// Calculate call, so no locking is needed.
type yearState struct {
	balances  map[string]decimal.Decimal // current value per account
	bases     map[string]decimal.Decimal // remaining cost basis per account
	earnings  map[string]decimal.Decimal // net growth accumulated this period, drawn down by earnings-percent rules
	transfers map[string]decimal.Decimal // net transfer total this year (source negative, destination positive)
}

// applyTransfer executes one firing rule against the working state:
// determines the amount, moves cost basis proportionally, applies
// point-of-transfer tax for taxable sources, and records transfer totals.
// Rules referencing accounts absent from the state (deleted after the rule
// was created) are skipped without effect.
func (e *Engine) applyTransfer(r domain.TransferRule, accounts map[string]domain.Account, st *yearState, taxRate decimal.Decimal) {
	var src *domain.Account
	if r.SourceID != "" {
		a, ok := accounts[r.SourceID]
		if !ok {
			return
		}
		src = &a
	}
	if r.DestinationID != "" {
		if _, ok := accounts[r.DestinationID]; !ok {
			return
		}
	}
	if src == nil && r.DestinationID == "" {
		return
	}

	var available decimal.Decimal
	switch {
	case src == nil:
		// External income, always a fixed amount in the rule's currency.
		available = e.fx.ToBase(r.Amount, r.AmountCurrency)

	case r.AmountType == domain.AmountEarningsPercent:
		pct := clampPercent(r.Amount)
		earned := st.earnings[src.ID]
		if earned.IsNegative() {
			earned = decimal.Zero
		}
		available = earned.Mul(pct).Div(hundred)
		// Draw down the period's earnings so a recurring sweep can't move
		// the same growth twice.
		st.earnings[src.ID] = st.earnings[src.ID].Sub(available)

	default:
		available = e.fx.ToBase(r.Amount, src.Currency)
	}

	if !available.IsPositive() {
		return
	}

	basisMoved := available // external money arrives as fresh principal
	net := available
	if src != nil {
		current := st.balances[src.ID]
		proportion := one
		if current.IsPositive() {
			proportion = available.Div(current)
			if proportion.GreaterThan(one) {
				proportion = one
			}
		}
		basisMoved = st.bases[src.ID].Mul(proportion)

		tax := decimal.Zero
		if src.TaxTreatment == domain.TaxTaxable {
			gain := available.Sub(basisMoved)
			if gain.IsPositive() {
				tax = gain.Mul(taxRate).Div(hundred)
			}
		}
		net = available.Sub(tax)

		// net + tax leaves the source; only net arrives anywhere.
		st.balances[src.ID] = st.balances[src.ID].Sub(available)
		st.bases[src.ID] = st.bases[src.ID].Sub(basisMoved)
		if st.bases[src.ID].IsNegative() {
			st.bases[src.ID] = decimal.Zero
		}
		st.transfers[src.ID] = st.transfers[src.ID].Sub(net)
	}

	if r.DestinationID == "" {
		// External destination is a sink: money leaves the plan entirely.
		return
	}
	st.balances[r.DestinationID] = st.balances[r.DestinationID].Add(net)
	st.bases[r.DestinationID] = st.bases[r.DestinationID].Add(basisMoved)
	st.transfers[r.DestinationID] = st.transfers[r.DestinationID].Add(net)
}

// clampPercent clamps an earnings-percent value to (0, 100].
func clampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.GreaterThan(hundred) {
		return hundred
	}
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}

// NoCompoundAccounts derives the set of accounts whose entire earnings
// stream is swept away each period by a 100% earnings-percent rule. Their
// growth is computed off the start-of-year balance so the transferred-out
// earnings don't also compound in place. Recomputed from the rule list on
// every run; never stored on the account.
func NoCompoundAccounts(rules []domain.TransferRule) map[string]bool {
	out := map[string]bool{}
	for _, r := range rules {
		if r.AmountType != domain.AmountEarningsPercent || r.SourceID == "" {
			continue
		}
		if clampPercent(r.Amount).GreaterThanOrEqual(hundred) {
			out[r.SourceID] = true
		}
	}
	return out
}
