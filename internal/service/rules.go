package service

import (
	"context"

	"github.com/arassch/networth-planner/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================
// Transfer rules
// ============================================================

// AddRule attaches a transfer rule to a projection.
func (s *PlannerService) AddRule(ctx context.Context, portfolioID, projectionID string, req *domain.RuleRequest) (*domain.TransferRule, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.AddRule")
	defer span.End()

	rule := ruleFromRequest(req)
	rule.ID = uuid.NewString()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		proj := p.ProjectionByID(projectionID)
		if proj == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		if err := validateRule(p, &rule); err != nil {
			return err
		}
		proj.TransferRules = append(proj.TransferRules, rule)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("rule created",
		zap.String("portfolio_id", portfolioID),
		zap.String("projection_id", projectionID),
		zap.String("rule_id", rule.ID),
		zap.String("frequency", string(rule.Frequency)),
	)
	return &rule, nil
}

// UpdateRule replaces an existing rule's fields, keeping its id.
func (s *PlannerService) UpdateRule(ctx context.Context, portfolioID, projectionID, ruleID string, req *domain.RuleRequest) (*domain.TransferRule, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.UpdateRule")
	defer span.End()

	updated := ruleFromRequest(req)
	updated.ID = ruleID

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		proj := p.ProjectionByID(projectionID)
		if proj == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		if err := validateRule(p, &updated); err != nil {
			return err
		}
		for i := range proj.TransferRules {
			if proj.TransferRules[i].ID == ruleID {
				proj.TransferRules[i] = updated
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "rule", ID: ruleID}
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteRule removes a rule from a projection.
func (s *PlannerService) DeleteRule(ctx context.Context, portfolioID, projectionID, ruleID string) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.DeleteRule")
	defer span.End()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		proj := p.ProjectionByID(projectionID)
		if proj == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		for i := range proj.TransferRules {
			if proj.TransferRules[i].ID == ruleID {
				proj.TransferRules = append(proj.TransferRules[:i], proj.TransferRules[i+1:]...)
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "rule", ID: ruleID}
	})
	return err
}

func ruleFromRequest(req *domain.RuleRequest) domain.TransferRule {
	rule := domain.TransferRule{
		SourceID:       req.SourceID,
		DestinationID:  req.DestinationID,
		ExternalLabel:  req.ExternalLabel,
		Amount:         req.Amount,
		AmountType:     req.AmountType,
		AmountCurrency: req.AmountCurrency,
		Frequency:      req.Frequency,
		IntervalYears:  req.IntervalYears,
	}
	if req.AmountType == "" {
		rule.AmountType = domain.AmountFixed
	}
	if req.Start != nil {
		start := *req.Start
		rule.Start = &start
	}
	if req.End != nil {
		end := *req.End
		rule.End = &end
	}
	return rule
}

// validateRule checks a rule against the portfolio it will run in. Both
// endpoints may not be external at once, and any real endpoint must name
// an existing account.
func validateRule(p *domain.Portfolio, r *domain.TransferRule) error {
	if r.SourceID == "" && r.DestinationID == "" {
		return &domain.ErrValidation{Field: "source_id", Message: "at least one endpoint must be an account"}
	}
	if r.SourceID != "" && r.SourceID == r.DestinationID {
		return &domain.ErrValidation{Field: "destination_id", Message: "source and destination must differ"}
	}
	if r.SourceID != "" && p.AccountByID(r.SourceID) == nil {
		return &domain.ErrNotFound{Resource: "account", ID: r.SourceID}
	}
	if r.DestinationID != "" && p.AccountByID(r.DestinationID) == nil {
		return &domain.ErrNotFound{Resource: "account", ID: r.DestinationID}
	}

	switch r.AmountType {
	case domain.AmountFixed:
		if r.Amount.IsNegative() {
			return &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
		}
	case domain.AmountEarningsPercent:
		if r.SourceID == "" {
			return &domain.ErrValidation{Field: "source_id", Message: "earnings_percent requires a source account"}
		}
		if !r.Amount.IsPositive() || r.Amount.GreaterThan(hundred) {
			return &domain.ErrValidation{Field: "amount", Message: "percent must be in (0, 100]"}
		}
	default:
		return &domain.ErrValidation{Field: "amount_type", Message: "unknown amount type"}
	}

	if !r.Frequency.Valid() {
		return &domain.ErrValidation{Field: "frequency", Message: "unknown frequency"}
	}
	if r.Frequency == domain.FreqEveryXYears && r.IntervalYears < 1 {
		return &domain.ErrValidation{Field: "interval_years", Message: "must be at least 1"}
	}
	if r.Start == nil {
		return &domain.ErrValidation{Field: "start", Message: "required"}
	}
	if r.End != nil && r.End.Cmp(*r.Start) < 0 {
		return &domain.ErrValidation{Field: "end", Message: "must not precede start"}
	}
	return nil
}
