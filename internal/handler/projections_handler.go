package handler

import (
	"encoding/json"
	"net/http"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Projections Handlers
// ============================================================

func addProjectionHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolios/{portfolioId}/projections")
		defer span.End()

		var req domain.ProjectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		proj, err := svc.AddProjection(ctx, chi.URLParam(r, "portfolioId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, proj)
	}
}

func duplicateProjectionHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolios/{portfolioId}/projections/{projectionId}/duplicate")
		defer span.End()

		// Body is optional: an empty one gets the "<name> (copy)" default.
		var req domain.ProjectionRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}
		proj, err := svc.DuplicateProjection(ctx, chi.URLParam(r, "portfolioId"), chi.URLParam(r, "projectionId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, proj)
	}
}

func updateProjectionHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/portfolios/{portfolioId}/projections/{projectionId}")
		defer span.End()

		var req domain.ProjectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		proj, err := svc.UpdateProjection(ctx, chi.URLParam(r, "portfolioId"), chi.URLParam(r, "projectionId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, proj)
	}
}

func deleteProjectionHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/portfolios/{portfolioId}/projections/{projectionId}")
		defer span.End()

		projectionID := chi.URLParam(r, "projectionId")
		if err := svc.DeleteProjection(ctx, chi.URLParam(r, "portfolioId"), projectionID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "projection deleted", ID: projectionID})
	}
}

func activateProjectionHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolios/{portfolioId}/projections/{projectionId}/activate")
		defer span.End()

		projectionID := chi.URLParam(r, "projectionId")
		if err := svc.SetActiveProjection(ctx, chi.URLParam(r, "portfolioId"), projectionID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "projection activated", ID: projectionID})
	}
}

// ============================================================
// Per-scenario account overrides
// ============================================================

func setOverrideHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/portfolios/{portfolioId}/projections/{projectionId}/overrides/{accountId}")
		defer span.End()

		var override domain.AccountOverride
		if err := json.NewDecoder(r.Body).Decode(&override); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		err := svc.SetAccountOverride(ctx,
			chi.URLParam(r, "portfolioId"),
			chi.URLParam(r, "projectionId"),
			chi.URLParam(r, "accountId"),
			override,
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "override set"})
	}
}

func clearOverrideHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/portfolios/{portfolioId}/projections/{projectionId}/overrides/{accountId}")
		defer span.End()

		err := svc.ClearAccountOverride(ctx,
			chi.URLParam(r, "portfolioId"),
			chi.URLParam(r, "projectionId"),
			chi.URLParam(r, "accountId"),
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "override cleared"})
	}
}

// ============================================================
// Milestones
// ============================================================

func addMilestoneHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolios/{portfolioId}/projections/{projectionId}/milestones")
		defer span.End()

		var req domain.MilestoneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		milestone, err := svc.AddMilestone(ctx, chi.URLParam(r, "portfolioId"), chi.URLParam(r, "projectionId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, milestone)
	}
}

func deleteMilestoneHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/portfolios/{portfolioId}/projections/{projectionId}/milestones/{milestoneId}")
		defer span.End()

		milestoneID := chi.URLParam(r, "milestoneId")
		err := svc.DeleteMilestone(ctx,
			chi.URLParam(r, "portfolioId"),
			chi.URLParam(r, "projectionId"),
			milestoneID,
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "milestone deleted", ID: milestoneID})
	}
}
