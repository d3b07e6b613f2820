package service

import (
	"context"
	"strconv"

	"github.com/arassch/networth-planner/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// ============================================================
// Accounts
// ============================================================

// ListAccounts returns the portfolio's accounts.
func (s *PlannerService) ListAccounts(ctx context.Context, portfolioID string) ([]domain.Account, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.ListAccounts")
	defer span.End()

	p, err := s.store.Get(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return p.Accounts, nil
}

// AddAccount creates an account. Cost basis defaults to the balance unless
// set explicitly; the currency defaults to the portfolio's base currency.
func (s *PlannerService) AddAccount(ctx context.Context, portfolioID string, req *domain.AccountRequest) (*domain.Account, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.AddAccount")
	defer span.End()

	if err := validateAccountRequest(req); err != nil {
		return nil, err
	}

	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Type:         req.Type,
		Balance:      req.Balance,
		Currency:     req.Currency,
		ReturnRate:   req.ReturnRate,
		TaxTreatment: req.TaxTreatment,
		CostBasis:    req.Balance,
	}
	if req.CostBasis != nil {
		account.CostBasis = *req.CostBasis
	}

	p, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		if account.Currency == "" {
			account.Currency = p.BaseCurrency
		}
		p.Accounts = append(p.Accounts, account)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("portfolio_id", portfolioID),
		zap.String("account_id", account.ID),
		zap.String("type", string(account.Type)),
	)
	created := p.AccountByID(account.ID)
	return created, nil
}

// UpdateAccount replaces an account's user-editable fields.
func (s *PlannerService) UpdateAccount(ctx context.Context, portfolioID, accountID string, req *domain.AccountRequest) (*domain.Account, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.UpdateAccount")
	defer span.End()

	if err := validateAccountRequest(req); err != nil {
		return nil, err
	}

	var updated domain.Account
	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		account := p.AccountByID(accountID)
		if account == nil {
			return &domain.ErrNotFound{Resource: "account", ID: accountID}
		}
		account.Name = req.Name
		account.Type = req.Type
		account.Balance = req.Balance
		if req.Currency != "" {
			account.Currency = req.Currency
		}
		account.ReturnRate = req.ReturnRate
		account.TaxTreatment = req.TaxTreatment
		if req.CostBasis != nil {
			account.CostBasis = *req.CostBasis
		} else if account.CostBasis.GreaterThan(account.Balance) {
			// Basis can never exceed what's actually in the account.
			account.CostBasis = account.Balance
		}
		updated = *account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteAccount removes an account and cascades: its return-rate overrides
// and actual-value history are dropped, and every transfer rule referencing
// it loses that endpoint. Rules left without any real endpoint, and
// earnings-percent rules that lost their source, are removed entirely.
func (s *PlannerService) DeleteAccount(ctx context.Context, portfolioID, accountID string) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.DeleteAccount")
	defer span.End()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		idx := -1
		for i := range p.Accounts {
			if p.Accounts[i].ID == accountID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "account", ID: accountID}
		}
		p.Accounts = append(p.Accounts[:idx], p.Accounts[idx+1:]...)
		delete(p.ActualValues, accountID)

		for pi := range p.Projections {
			proj := &p.Projections[pi]
			delete(proj.AccountOverrides, accountID)

			kept := proj.TransferRules[:0]
			for _, r := range proj.TransferRules {
				if r.SourceID == accountID {
					if r.AmountType == domain.AmountEarningsPercent || r.DestinationID == "" {
						continue // nothing real left to run against
					}
					r.SourceID = ""
				}
				if r.DestinationID == accountID {
					if r.SourceID == "" {
						continue
					}
					r.DestinationID = ""
				}
				kept = append(kept, r)
			}
			proj.TransferRules = kept
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted",
		zap.String("portfolio_id", portfolioID),
		zap.String("account_id", accountID),
	)
	return nil
}

func validateAccountRequest(req *domain.AccountRequest) error {
	if req.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if !req.Type.Valid() {
		return &domain.ErrValidation{Field: "type", Message: "must be 'investment' or 'cash'"}
	}
	if !req.TaxTreatment.Valid() {
		return &domain.ErrValidation{Field: "tax_treatment", Message: "must be 'taxable', 'deferred' or 'roth'"}
	}
	if req.Balance.IsNegative() {
		return &domain.ErrValidation{Field: "balance", Message: "must not be negative"}
	}
	if req.CostBasis != nil && req.CostBasis.IsNegative() {
		return &domain.ErrValidation{Field: "cost_basis", Message: "must not be negative"}
	}
	return nil
}

// ============================================================
// Actual values
// ============================================================

// SetActualValue records an observed value for an account and year, in the
// account's currency. Year is absolute (e.g. 2024).
func (s *PlannerService) SetActualValue(ctx context.Context, portfolioID, accountID string, year int, value decimal.Decimal) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.SetActualValue")
	defer span.End()

	if year < 1900 {
		return &domain.ErrValidation{Field: "year", Message: "must be an absolute year"}
	}
	if value.IsNegative() {
		return &domain.ErrValidation{Field: "value", Message: "must not be negative"}
	}

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		if p.AccountByID(accountID) == nil {
			return &domain.ErrNotFound{Resource: "account", ID: accountID}
		}
		if p.ActualValues == nil {
			p.ActualValues = make(map[string]map[string]decimal.Decimal)
		}
		if p.ActualValues[accountID] == nil {
			p.ActualValues[accountID] = make(map[string]decimal.Decimal)
		}
		p.ActualValues[accountID][strconv.Itoa(year)] = value
		return nil
	})
	return err
}

// DeleteActualValue removes one observation.
func (s *PlannerService) DeleteActualValue(ctx context.Context, portfolioID, accountID string, year int) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.DeleteActualValue")
	defer span.End()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		byYear, ok := p.ActualValues[accountID]
		if !ok {
			return &domain.ErrNotFound{Resource: "actual value", ID: accountID}
		}
		key := strconv.Itoa(year)
		if _, ok := byYear[key]; !ok {
			return &domain.ErrNotFound{Resource: "actual value", ID: key}
		}
		delete(byYear, key)
		if len(byYear) == 0 {
			delete(p.ActualValues, accountID)
		}
		return nil
	})
	return err
}
