package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// Accounts Handlers
// ============================================================

func listAccountsHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/portfolios/{portfolioId}/accounts")
		defer span.End()

		accounts, err := svc.ListAccounts(ctx, chi.URLParam(r, "portfolioId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

func addAccountHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/portfolios/{portfolioId}/accounts")
		defer span.End()

		var req domain.AccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		account, err := svc.AddAccount(ctx, chi.URLParam(r, "portfolioId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

func updateAccountHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/portfolios/{portfolioId}/accounts/{accountId}")
		defer span.End()

		var req domain.AccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		account, err := svc.UpdateAccount(ctx, chi.URLParam(r, "portfolioId"), chi.URLParam(r, "accountId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func deleteAccountHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/portfolios/{portfolioId}/accounts/{accountId}")
		defer span.End()

		accountID := chi.URLParam(r, "accountId")
		if err := svc.DeleteAccount(ctx, chi.URLParam(r, "portfolioId"), accountID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "account deleted", ID: accountID})
	}
}

// ============================================================
// Actual-value history
// ============================================================

type actualValueRequest struct {
	Value decimal.Decimal `json:"value"`
}

func setActualValueHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/portfolios/{portfolioId}/accounts/{accountId}/actuals/{year}")
		defer span.End()

		year, err := strconv.Atoi(chi.URLParam(r, "year"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		var req actualValueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := svc.SetActualValue(ctx, chi.URLParam(r, "portfolioId"), chi.URLParam(r, "accountId"), year, req.Value); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "actual value recorded"})
	}
}

func deleteActualValueHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/portfolios/{portfolioId}/accounts/{accountId}/actuals/{year}")
		defer span.End()

		year, err := strconv.Atoi(chi.URLParam(r, "year"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		if err := svc.DeleteActualValue(ctx, chi.URLParam(r, "portfolioId"), chi.URLParam(r, "accountId"), year); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "actual value removed"})
	}
}
