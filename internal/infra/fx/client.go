package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/infra/resilience"
	"github.com/arassch/networth-planner/internal/port"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("fx")

// Client fetches conversion rates from an exchange-rate HTTP API and
// snapshots them into immutable Tables. Snapshots are cached so repeated
// calculations within the TTL don't hit the network.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	cache      port.Cache[*Table]
	logger     *zap.Logger
}

// NewClient creates an fx rates client.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, cache port.Cache[*Table], logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		cache:      cache,
		logger:     logger,
	}
}

// Snapshot implements port.RateSource: returns a frozen converter for the
// base currency, from cache when fresh, refreshing through the circuit
// breaker with retries otherwise.
func (c *Client) Snapshot(ctx context.Context, base string) (port.Converter, error) {
	ctx, span := tracer.Start(ctx, "fx.Snapshot")
	defer span.End()
	span.SetAttributes(attribute.String("fx.base", base))

	if table, ok := c.cache.Get(base); ok {
		return table, nil
	}

	var table *Table
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			fetched, err := c.fetch(ctx, base)
			if err != nil {
				return err
			}
			table = fetched
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: "fx"}
		}
		return nil, &domain.ErrExternalService{Service: "fx", Err: err}
	}

	c.cache.Set(base, table)
	return table, nil
}

// fetch performs one rates request: GET {base}/v1/rates?base=USD returning
// {"base":"USD","rates":{"EUR":1.08,...}} with rates as base units per one
// foreign unit.
func (c *Client) fetch(ctx context.Context, base string) (*Table, error) {
	url := fmt.Sprintf("%s/v1/rates?base=%s", c.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("fx: request failed",
			zap.String("base", base),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("fx: non-200 response",
			zap.String("base", base),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("fx api returned status %d", resp.StatusCode)
	}

	var payload struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("fx api: malformed response: %w", err)
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, rate := range payload.Rates {
		rates[code] = decimal.NewFromFloat(rate)
	}

	c.logger.Debug("fx: rates refreshed",
		zap.String("base", base),
		zap.Int("count", len(rates)),
	)

	return NewTable(base, rates), nil
}
