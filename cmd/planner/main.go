package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arassch/networth-planner/internal/config"
	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/handler"
	"github.com/arassch/networth-planner/internal/infra/cache"
	"github.com/arassch/networth-planner/internal/infra/fx"
	"github.com/arassch/networth-planner/internal/infra/observability"
	"github.com/arassch/networth-planner/internal/infra/resilience"
	"github.com/arassch/networth-planner/internal/infra/store"
	"github.com/arassch/networth-planner/internal/port"
	"github.com/arassch/networth-planner/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("base_currency", cfg.BaseCurrency),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "networth-planner")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	seriesCache := cache.New[[]domain.YearPoint](cfg.CacheTTL)
	rateCache := cache.New[*fx.Table](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var rates port.RateSource
	if cfg.FXAPIURL != "" {
		logger.Info("using live currency rates", zap.String("fx_api_url", cfg.FXAPIURL))
		rates = fx.NewClient(httpClient, cfg.FXAPIURL, cfg.FXAPIKey, cb, resilienceCfg, rateCache, logger)
	} else {
		logger.Info("no rate provider configured, foreign amounts pass through unconverted")
		rates = fx.NewStaticSource(fx.Identity(cfg.BaseCurrency))
	}

	var portfolios port.PortfolioStore
	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as portfolio store", zap.String("supabase_url", cfg.SupabaseURL))
		portfolios = store.NewSupabase(httpClient, cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseServiceKey, cb, resilienceCfg, logger)
	} else {
		logger.Info("using in-memory portfolio store")
		portfolios = store.NewMemory()
	}

	// --- Services ---
	plannerSvc := service.NewPlannerService(
		portfolios,
		rates,
		seriesCache,
		service.Defaults{
			BaseCurrency:    cfg.BaseCurrency,
			ProjectionYears: cfg.DefaultProjectionYears,
		},
		metrics,
		logger,
	)

	// --- Router ---
	router := handler.NewRouter(plannerSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
