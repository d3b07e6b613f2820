package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/infra/observability"
	"github.com/arassch/networth-planner/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.PlannerService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Portfolio
		// =============================================
		r.Post("/portfolios", createPortfolioHandler(svc, logger))
		r.Get("/portfolios/{portfolioId}", getPortfolioHandler(svc, logger))
		r.Put("/portfolios/{portfolioId}/settings", updateSettingsHandler(svc, logger))

		r.Route("/portfolios/{portfolioId}", func(r chi.Router) {

			// =============================================
			// 2. Accounts & actual-value history
			// =============================================
			r.Get("/accounts", listAccountsHandler(svc, logger))
			r.Post("/accounts", addAccountHandler(svc, logger))
			r.Put("/accounts/{accountId}", updateAccountHandler(svc, logger))
			r.Delete("/accounts/{accountId}", deleteAccountHandler(svc, logger))
			r.Put("/accounts/{accountId}/actuals/{year}", setActualValueHandler(svc, logger))
			r.Delete("/accounts/{accountId}/actuals/{year}", deleteActualValueHandler(svc, logger))

			// =============================================
			// 3. Projections (scenarios)
			// =============================================
			r.Post("/projections", addProjectionHandler(svc, logger))
			r.Post("/projections/{projectionId}/duplicate", duplicateProjectionHandler(svc, logger))
			r.Put("/projections/{projectionId}", updateProjectionHandler(svc, logger))
			r.Delete("/projections/{projectionId}", deleteProjectionHandler(svc, logger))
			r.Post("/projections/{projectionId}/activate", activateProjectionHandler(svc, logger))
			r.Put("/projections/{projectionId}/overrides/{accountId}", setOverrideHandler(svc, logger))
			r.Delete("/projections/{projectionId}/overrides/{accountId}", clearOverrideHandler(svc, logger))
			r.Post("/projections/{projectionId}/milestones", addMilestoneHandler(svc, logger))
			r.Delete("/projections/{projectionId}/milestones/{milestoneId}", deleteMilestoneHandler(svc, logger))

			// =============================================
			// 4. Transfer rules
			// =============================================
			r.Post("/projections/{projectionId}/rules", addRuleHandler(svc, logger))
			r.Put("/projections/{projectionId}/rules/{ruleId}", updateRuleHandler(svc, logger))
			r.Delete("/projections/{projectionId}/rules/{ruleId}", deleteRuleHandler(svc, logger))

			// =============================================
			// 5. Calculation
			// =============================================
			r.Get("/series", getSeriesHandler(svc, logger))
			r.Get("/compare", compareProjectionsHandler(svc, logger))
		})

		// =============================================
		// 6. Engine metrics
		// =============================================
		r.Get("/metrics/engine", engineMetricsHandler(svc, logger))
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "planner-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := svc.GetPortfolio(ctx, "health-check")
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		// A missing probe portfolio still proves the store is reachable.
		var notFound *domain.ErrNotFound
		if err != nil && !errors.As(err, &notFound) {
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name: "store", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
				break
			}
		}
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/engine")
		defer span.End()
		writeJSON(w, http.StatusOK, svc.EngineStats())
	}
}
