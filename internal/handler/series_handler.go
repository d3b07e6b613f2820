package handler

import (
	"net/http"

	"github.com/arassch/networth-planner/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Series & Comparison Handlers
// ============================================================

// getSeriesHandler runs a projection calculation.
//
//	GET /v1/portfolios/{portfolioId}/series
//	  ?projection=<id>      scenario to run (default: active)
//	  ?accounts=a,b,c       restrict the series to these accounts
//	  ?breakdown=true       include the per-account breakdown
func getSeriesHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/portfolios/{portfolioId}/series")
		defer span.End()

		q := r.URL.Query()
		req := service.CalcRequest{
			ProjectionID:    q.Get("projection"),
			Selection:       parseCSV(q.Get("accounts")),
			IncludeAccounts: q.Get("breakdown") == "true",
		}
		result, err := svc.CalculateProjection(ctx, chi.URLParam(r, "portfolioId"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func compareProjectionsHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/portfolios/{portfolioId}/compare")
		defer span.End()

		results, err := svc.CompareProjections(ctx, chi.URLParam(r, "portfolioId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}
