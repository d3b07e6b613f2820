package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("store/supabase")

// Supabase persists portfolios as JSON documents in a Supabase (PostgREST)
// table. One row per portfolio: {id, document}. The schema is deliberately
// document-shaped: the portfolio is a small aggregate edited as a whole.
type Supabase struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	bulkhead       *resilience.Bulkhead
	logger         *zap.Logger
}

// NewSupabase creates a Supabase-backed portfolio store.
func NewSupabase(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Supabase {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Supabase{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		bulkhead:       resilience.NewBulkhead(maxConcurrency),
		logger:         logger,
	}
}

type portfolioRow struct {
	ID       string            `json:"id"`
	Document *domain.Portfolio `json:"document"`
}

// Get loads one portfolio document.
func (s *Supabase) Get(ctx context.Context, id string) (*domain.Portfolio, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Get")
	defer span.End()

	path := fmt.Sprintf("portfolios?id=eq.%s&select=id,document", id)
	body, err := s.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var rows []portfolioRow
	if len(body) > 0 {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("supabase: malformed portfolio row: %w", err)
		}
	}
	if len(rows) == 0 || rows[0].Document == nil {
		return nil, &domain.ErrNotFound{Resource: "portfolio", ID: id}
	}
	return rows[0].Document, nil
}

// Put upserts one portfolio document.
func (s *Supabase) Put(ctx context.Context, p *domain.Portfolio) error {
	ctx, span := tracer.Start(ctx, "Supabase.Put")
	defer span.End()

	payload, err := json.Marshal(portfolioRow{ID: p.ID, Document: p})
	if err != nil {
		return err
	}
	_, err = s.doRequest(ctx, http.MethodPost, "portfolios?on_conflict=id", payload)
	return err
}

// Delete removes one portfolio document.
func (s *Supabase) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Delete")
	defer span.End()

	_, err := s.doRequest(ctx, http.MethodDelete, fmt.Sprintf("portfolios?id=eq.%s", id), nil)
	return err
}

// doRequest executes an authenticated request to Supabase PostgREST, behind
// the bulkhead, circuit breaker and retry policy.
func (s *Supabase) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	var body []byte
	_, err := s.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, s.cfg, func() error {
			b, err := s.do(ctx, method, path, payload)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, &domain.ErrCircuitOpen{Service: "supabase"}
	}
	return body, err
}

func (s *Supabase) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, path)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
