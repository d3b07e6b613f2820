package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/engine"
	"github.com/arassch/networth-planner/internal/infra/fx"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Calculation
// ============================================================

// CalcRequest selects what to calculate. An empty ProjectionID means the
// portfolio's active projection.
type CalcRequest struct {
	ProjectionID    string
	Selection       []string
	IncludeAccounts bool
}

// CalculateProjection runs (or replays from cache) the projection series for
// one scenario.
func (s *PlannerService) CalculateProjection(ctx context.Context, portfolioID string, req CalcRequest) (*domain.SeriesResult, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.CalculateProjection")
	defer span.End()
	start := time.Now()

	p, err := s.store.Get(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	projectionID := req.ProjectionID
	if projectionID == "" {
		if active := p.ActiveProjection(); active != nil {
			projectionID = active.ID
		}
	}
	span.SetAttributes(
		attribute.String("portfolio.id", portfolioID),
		attribute.String("projection.id", projectionID),
	)

	result, err := s.runProjection(ctx, p, projectionID, req, time.Now())
	if err != nil {
		s.metrics.IncrEngineRun("error")
		return nil, err
	}
	s.metrics.RecordRequestDuration("calculate", time.Since(start))
	return result, nil
}

// runProjection is the shared path behind single-scenario calculation and
// multi-scenario comparison. The portfolio snapshot is already loaded.
func (s *PlannerService) runProjection(ctx context.Context, p *domain.Portfolio, projectionID string, req CalcRequest, now time.Time) (*domain.SeriesResult, error) {
	view, err := domain.BuildProjectionView(p, projectionID, now)
	if err != nil {
		return nil, err
	}
	proj := p.ProjectionByID(projectionID)

	opts := engine.Options{IncludeAccounts: req.IncludeAccounts, Now: now}
	if len(req.Selection) > 0 {
		opts.Selection = make(map[string]bool, len(req.Selection))
		for _, id := range req.Selection {
			opts.Selection[id] = true
		}
	}

	key := seriesCacheKey(p, projectionID, req)
	points, ok := s.series.Get(key)
	if ok {
		s.metrics.IncrCacheHit("series")
	} else {
		s.metrics.IncrCacheMiss("series")

		conv, err := s.rates.Snapshot(ctx, p.BaseCurrency)
		if err != nil {
			// A rate outage degrades currency conversion to identity
			// rather than failing the whole calculation.
			s.metrics.IncrExternalError("fx")
			s.logger.Warn("rate snapshot unavailable, using identity conversion",
				zap.String("base_currency", p.BaseCurrency),
				zap.Error(err),
			)
			conv = fx.Identity(p.BaseCurrency)
		}

		points = engine.New(conv).Calculate(view, opts)
		s.series.Set(key, points)
		s.metrics.IncrEngineRun("success")
		s.metrics.RecordEngineYears(p.ProjectionYears)
	}

	result := &domain.SeriesResult{
		ProjectionID:   projectionID,
		ProjectionName: view.ProjectionName,
		Points:         points,
		FIYear:         fiYear(p.FITarget, points),
	}
	if proj != nil && len(proj.Milestones) > 0 {
		result.Milestones = append([]domain.Milestone(nil), proj.Milestones...)
	}
	return result, nil
}

// CompareProjections calculates every scenario concurrently and reduces each
// series to its final-year totals.
func (s *PlannerService) CompareProjections(ctx context.Context, portfolioID string) ([]domain.ProjectionComparison, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.CompareProjections")
	defer span.End()
	start := time.Now()

	p, err := s.store.Get(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]domain.ProjectionComparison, len(p.Projections))

	g, gctx := errgroup.WithContext(ctx)
	for i := range p.Projections {
		i := i
		proj := p.Projections[i]
		g.Go(func() error {
			series, err := s.runProjection(gctx, p, proj.ID, CalcRequest{ProjectionID: proj.ID}, now)
			if err != nil {
				return err
			}
			results[i] = toComparison(proj, series)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.IncrEngineRun("error")
		return nil, err
	}

	s.metrics.RecordRequestDuration("compare", time.Since(start))
	return results, nil
}

func toComparison(proj domain.Projection, series *domain.SeriesResult) domain.ProjectionComparison {
	cmp := domain.ProjectionComparison{
		ProjectionID:   proj.ID,
		ProjectionName: proj.Name,
		FIYear:         series.FIYear,
	}
	for i := len(series.Points) - 1; i >= 0; i-- {
		pt := series.Points[i]
		if pt.Projected == nil {
			continue
		}
		cmp.FinalYear = pt.Year
		cmp.FinalProjected = *pt.Projected
		cmp.FinalAfterTax = pt.ProjectedAfterTax
		break
	}
	return cmp
}

// fiYear finds the first projected year whose total meets the FI target.
func fiYear(target domain.FITarget, points []domain.YearPoint) *int {
	if !target.Enabled {
		return nil
	}
	for _, pt := range points {
		if pt.Projected != nil && pt.Projected.GreaterThanOrEqual(target.Amount) {
			year := pt.Year
			return &year
		}
	}
	return nil
}

// seriesCacheKey keys cached series by portfolio revision, so every mutation
// naturally invalidates prior entries.
func seriesCacheKey(p *domain.Portfolio, projectionID string, req CalcRequest) string {
	sel := append([]string(nil), req.Selection...)
	sort.Strings(sel)

	var b strings.Builder
	b.WriteString(p.ID)
	b.WriteByte('|')
	b.WriteString(projectionID)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(p.Revision, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(req.IncludeAccounts))
	b.WriteByte('|')
	b.WriteString(strings.Join(sel, ","))
	return b.String()
}

// EngineStats exposes the operational counters for the metrics endpoint.
func (s *PlannerService) EngineStats() *domain.EngineMetrics {
	return s.metrics.GetEngineSnapshot()
}
