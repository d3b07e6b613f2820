package fx_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arassch/networth-planner/internal/infra/cache"
	"github.com/arassch/networth-planner/internal/infra/fx"
	"github.com/arassch/networth-planner/internal/infra/resilience"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestTable_ToBase(t *testing.T) {
	table := fx.NewTable("usd", map[string]decimal.Decimal{
		"eur": decimal.NewFromFloat(1.1),
		"bad": decimal.NewFromInt(-2),
	})

	if table.Base() != "USD" {
		t.Errorf("base = %s, want USD (normalized)", table.Base())
	}

	hundred := decimal.NewFromInt(100)
	if got := table.ToBase(hundred, "EUR"); !got.Equal(decimal.NewFromInt(110)) {
		t.Errorf("EUR conversion = %s, want 110", got)
	}
	if got := table.ToBase(hundred, "USD"); !got.Equal(hundred) {
		t.Errorf("base currency conversion = %s, want unchanged", got)
	}
	// Unknown and non-positive rates fall back to identity.
	if got := table.ToBase(hundred, "JPY"); !got.Equal(hundred) {
		t.Errorf("unknown currency = %s, want identity", got)
	}
	if got := table.ToBase(hundred, "BAD"); !got.Equal(hundred) {
		t.Errorf("non-positive rate = %s, want identity", got)
	}
	if got := table.ToBase(hundred, ""); !got.Equal(hundred) {
		t.Errorf("empty currency = %s, want identity", got)
	}
}

func TestStaticSource_MismatchedBaseFallsBackToIdentity(t *testing.T) {
	src := fx.NewStaticSource(fx.NewTable("USD", map[string]decimal.Decimal{
		"EUR": decimal.NewFromFloat(1.1),
	}))

	conv, err := src.Snapshot(context.Background(), "EUR")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if conv.Base() != "EUR" {
		t.Errorf("base = %s, want EUR identity table", conv.Base())
	}
	hundred := decimal.NewFromInt(100)
	if got := conv.ToBase(hundred, "USD"); !got.Equal(hundred) {
		t.Errorf("identity fallback converted: %s", got)
	}
}

func newTestClient(t *testing.T, url string) *fx.Client {
	t.Helper()
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond}
	return fx.NewClient(
		&http.Client{Timeout: time.Second},
		url,
		"test-key",
		resilience.NewCircuitBreaker("fx-test"),
		cfg,
		cache.New[*fx.Table](time.Minute),
		zap.NewNop(),
	)
}

func TestClient_Snapshot(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/rates" || r.URL.Query().Get("base") != "USD" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"base":  "USD",
			"rates": map[string]float64{"EUR": 1.08, "GBP": 1.27},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	conv, err := client.Snapshot(context.Background(), "USD")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}

	got := conv.ToBase(decimal.NewFromInt(100), "EUR")
	if !got.Equal(decimal.NewFromInt(108)) {
		t.Errorf("conversion = %s, want 108", got)
	}
}

func TestClient_SnapshotUsesCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(map[string]any{"base": "USD", "rates": map[string]float64{}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.Snapshot(context.Background(), "USD"); err != nil {
			t.Fatalf("Snapshot %d: %v", i, err)
		}
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (cached)", requests)
	}
}

func TestClient_SnapshotServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.Snapshot(context.Background(), "USD"); err == nil {
		t.Fatal("expected error from failing rate API")
	}
}
