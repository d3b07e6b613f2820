// Package service provides the business logic layer (use cases).
// PlannerService handles all planning operations: portfolio settings,
// accounts, actual-value history, projections, transfer rules, and the
// projection calculations themselves.
package service

import (
	"context"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/infra/observability"
	"github.com/arassch/networth-planner/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var plannerTracer = otel.Tracer("service/planner")

// Defaults seeds newly created portfolios.
type Defaults struct {
	BaseCurrency    string
	ProjectionYears int
}

// PlannerService orchestrates all planning operations against the portfolio
// store and runs projection calculations through the engine.
type PlannerService struct {
	store    port.PortfolioStore
	rates    port.RateSource
	series   port.Cache[[]domain.YearPoint]
	defaults Defaults
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewPlannerService creates a new planner service.
func NewPlannerService(store port.PortfolioStore, rates port.RateSource, series port.Cache[[]domain.YearPoint], defaults Defaults, metrics *observability.Metrics, logger *zap.Logger) *PlannerService {
	if defaults.BaseCurrency == "" {
		defaults.BaseCurrency = "USD"
	}
	if defaults.ProjectionYears < 1 {
		defaults.ProjectionYears = 30
	}
	return &PlannerService{
		store:    store,
		rates:    rates,
		series:   series,
		defaults: defaults,
		metrics:  metrics,
		logger:   logger,
	}
}

// ============================================================
// Portfolio
// ============================================================

// CreatePortfolio creates a portfolio seeded with one default projection,
// so the never-empty invariant holds from the start.
func (s *PlannerService) CreatePortfolio(ctx context.Context) (*domain.Portfolio, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.CreatePortfolio")
	defer span.End()

	proj := domain.Projection{
		ID:   uuid.NewString(),
		Name: "Default",
	}
	p := &domain.Portfolio{
		ID:                 uuid.NewString(),
		ProjectionYears:    s.defaults.ProjectionYears,
		BaseCurrency:       s.defaults.BaseCurrency,
		Projections:        []domain.Projection{proj},
		ActiveProjectionID: proj.ID,
	}

	if err := s.store.Put(ctx, p); err != nil {
		s.logger.Error("failed to create portfolio", zap.Error(err))
		return nil, err
	}

	s.logger.Info("portfolio created",
		zap.String("portfolio_id", p.ID),
		zap.String("base_currency", p.BaseCurrency),
	)
	return p, nil
}

// GetPortfolio loads one portfolio.
func (s *PlannerService) GetPortfolio(ctx context.Context, portfolioID string) (*domain.Portfolio, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.GetPortfolio")
	defer span.End()
	span.SetAttributes(attribute.String("portfolio.id", portfolioID))

	return s.store.Get(ctx, portfolioID)
}

// UpdateSettings applies portfolio-wide settings. Nil fields stay unchanged.
func (s *PlannerService) UpdateSettings(ctx context.Context, portfolioID string, req *domain.SettingsRequest) (*domain.Portfolio, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.UpdateSettings")
	defer span.End()

	if req.ProjectionYears != nil && *req.ProjectionYears < 1 {
		return nil, &domain.ErrValidation{Field: "projection_years", Message: "must be at least 1"}
	}
	if req.TaxRate != nil && (req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(hundred)) {
		return nil, &domain.ErrValidation{Field: "tax_rate", Message: "must be between 0 and 100"}
	}
	if req.FITarget != nil && req.FITarget.Amount.IsNegative() {
		return nil, &domain.ErrValidation{Field: "fi_target", Message: "amount must not be negative"}
	}

	return s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		if req.ProjectionYears != nil {
			p.ProjectionYears = *req.ProjectionYears
		}
		if req.TaxRate != nil {
			p.TaxRate = *req.TaxRate
		}
		if req.BaseCurrency != nil && *req.BaseCurrency != "" {
			p.BaseCurrency = *req.BaseCurrency
		}
		if req.FITarget != nil {
			p.FITarget = *req.FITarget
		}
		return nil
	})
}

// mutate loads a portfolio, applies fn, bumps the revision and stores the
// result. Every edit goes through here so calculation caches (keyed on the
// revision) age out naturally.
func (s *PlannerService) mutate(ctx context.Context, portfolioID string, fn func(p *domain.Portfolio) error) (*domain.Portfolio, error) {
	p, err := s.store.Get(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.Revision++
	if err := s.store.Put(ctx, p); err != nil {
		s.logger.Error("failed to store portfolio",
			zap.String("portfolio_id", portfolioID),
			zap.Error(err),
		)
		return nil, err
	}
	return p, nil
}
