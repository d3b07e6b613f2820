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
// Portfolio Handlers
// ============================================================

func createPortfolioHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolios")
		defer span.End()

		p, err := svc.CreatePortfolio(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func getPortfolioHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/portfolios/{portfolioId}")
		defer span.End()

		p, err := svc.GetPortfolio(ctx, chi.URLParam(r, "portfolioId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updateSettingsHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/portfolios/{portfolioId}/settings")
		defer span.End()

		var req domain.SettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		p, err := svc.UpdateSettings(ctx, chi.URLParam(r, "portfolioId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
