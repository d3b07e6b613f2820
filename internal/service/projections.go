package service

import (
	"context"

	"github.com/arassch/networth-planner/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================
// Projections (what-if scenarios)
// ============================================================

// AddProjection creates an empty scenario.
func (s *PlannerService) AddProjection(ctx context.Context, portfolioID string, req *domain.ProjectionRequest) (*domain.Projection, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.AddProjection")
	defer span.End()

	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}

	proj := domain.Projection{
		ID:   uuid.NewString(),
		Name: req.Name,
	}
	if req.InflationRate != nil {
		proj.InflationRate = *req.InflationRate
	}

	p, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		p.Projections = append(p.Projections, proj)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("projection created",
		zap.String("portfolio_id", portfolioID),
		zap.String("projection_id", proj.ID),
	)
	return p.ProjectionByID(proj.ID), nil
}

// DuplicateProjection deep-copies an existing scenario. The copy's rules,
// overrides and milestones all get fresh ids, so editing the copy never
// touches the original.
func (s *PlannerService) DuplicateProjection(ctx context.Context, portfolioID, projectionID string, req *domain.ProjectionRequest) (*domain.Projection, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.DuplicateProjection")
	defer span.End()

	var copyID string
	p, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		src := p.ProjectionByID(projectionID)
		if src == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}

		dup := src.Clone()
		dup.ID = uuid.NewString()
		copyID = dup.ID
		if req != nil && req.Name != "" {
			dup.Name = req.Name
		} else {
			dup.Name = src.Name + " (copy)"
		}
		if req != nil && req.InflationRate != nil {
			dup.InflationRate = *req.InflationRate
		}
		for i := range dup.TransferRules {
			dup.TransferRules[i].ID = uuid.NewString()
		}
		for i := range dup.Milestones {
			dup.Milestones[i].ID = uuid.NewString()
		}

		p.Projections = append(p.Projections, dup)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("projection duplicated",
		zap.String("portfolio_id", portfolioID),
		zap.String("source_id", projectionID),
		zap.String("projection_id", copyID),
	)
	return p.ProjectionByID(copyID), nil
}

// UpdateProjection renames a scenario and/or changes its inflation rate.
func (s *PlannerService) UpdateProjection(ctx context.Context, portfolioID, projectionID string, req *domain.ProjectionRequest) (*domain.Projection, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.UpdateProjection")
	defer span.End()

	p, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		proj := p.ProjectionByID(projectionID)
		if proj == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		if req.Name != "" {
			proj.Name = req.Name
		}
		if req.InflationRate != nil {
			proj.InflationRate = *req.InflationRate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.ProjectionByID(projectionID), nil
}

// DeleteProjection removes a scenario. The last remaining projection can't
// be deleted; deleting the active one falls back to the first.
func (s *PlannerService) DeleteProjection(ctx context.Context, portfolioID, projectionID string) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.DeleteProjection")
	defer span.End()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		if len(p.Projections) <= 1 {
			return &domain.ErrConflict{Message: "cannot delete the last remaining projection"}
		}
		idx := -1
		for i := range p.Projections {
			if p.Projections[i].ID == projectionID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		p.Projections = append(p.Projections[:idx], p.Projections[idx+1:]...)
		if p.ActiveProjectionID == projectionID {
			p.ActiveProjectionID = p.Projections[0].ID
		}
		return nil
	})
	return err
}

// SetActiveProjection switches which scenario the portfolio shows by default.
func (s *PlannerService) SetActiveProjection(ctx context.Context, portfolioID, projectionID string) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.SetActiveProjection")
	defer span.End()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		if p.ProjectionByID(projectionID) == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		p.ActiveProjectionID = projectionID
		return nil
	})
	return err
}

// SetAccountOverride sets a per-scenario return rate for one account.
func (s *PlannerService) SetAccountOverride(ctx context.Context, portfolioID, projectionID, accountID string, override domain.AccountOverride) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.SetAccountOverride")
	defer span.End()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		proj := p.ProjectionByID(projectionID)
		if proj == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		if p.AccountByID(accountID) == nil {
			return &domain.ErrNotFound{Resource: "account", ID: accountID}
		}
		if proj.AccountOverrides == nil {
			proj.AccountOverrides = make(map[string]domain.AccountOverride)
		}
		proj.AccountOverrides[accountID] = override
		return nil
	})
	return err
}

// ClearAccountOverride restores an account to its portfolio-level return rate.
func (s *PlannerService) ClearAccountOverride(ctx context.Context, portfolioID, projectionID, accountID string) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.ClearAccountOverride")
	defer span.End()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		proj := p.ProjectionByID(projectionID)
		if proj == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		delete(proj.AccountOverrides, accountID)
		return nil
	})
	return err
}

// AddMilestone marks a labelled year on a scenario.
func (s *PlannerService) AddMilestone(ctx context.Context, portfolioID, projectionID string, req *domain.MilestoneRequest) (*domain.Milestone, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.AddMilestone")
	defer span.End()

	if req.Label == "" {
		return nil, &domain.ErrValidation{Field: "label", Message: "required"}
	}

	milestone := domain.Milestone{ID: uuid.NewString(), Label: req.Label, Year: req.Year}
	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		proj := p.ProjectionByID(projectionID)
		if proj == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		proj.Milestones = append(proj.Milestones, milestone)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

// DeleteMilestone removes a milestone.
func (s *PlannerService) DeleteMilestone(ctx context.Context, portfolioID, projectionID, milestoneID string) error {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.DeleteMilestone")
	defer span.End()

	_, err := s.mutate(ctx, portfolioID, func(p *domain.Portfolio) error {
		proj := p.ProjectionByID(projectionID)
		if proj == nil {
			return &domain.ErrNotFound{Resource: "projection", ID: projectionID}
		}
		for i := range proj.Milestones {
			if proj.Milestones[i].ID == milestoneID {
				proj.Milestones = append(proj.Milestones[:i], proj.Milestones[i+1:]...)
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "milestone", ID: milestoneID}
	})
	return err
}
