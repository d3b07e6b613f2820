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
// Transfer Rule Handlers
// ============================================================

func addRuleHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolios/{portfolioId}/projections/{projectionId}/rules")
		defer span.End()

		var req domain.RuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rule, err := svc.AddRule(ctx, chi.URLParam(r, "portfolioId"), chi.URLParam(r, "projectionId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, rule)
	}
}

func updateRuleHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/portfolios/{portfolioId}/projections/{projectionId}/rules/{ruleId}")
		defer span.End()

		var req domain.RuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rule, err := svc.UpdateRule(ctx,
			chi.URLParam(r, "portfolioId"),
			chi.URLParam(r, "projectionId"),
			chi.URLParam(r, "ruleId"),
			&req,
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

func deleteRuleHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/portfolios/{portfolioId}/projections/{projectionId}/rules/{ruleId}")
		defer span.End()

		ruleID := chi.URLParam(r, "ruleId")
		err := svc.DeleteRule(ctx,
			chi.URLParam(r, "portfolioId"),
			chi.URLParam(r, "projectionId"),
			ruleID,
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "rule deleted", ID: ruleID})
	}
}
