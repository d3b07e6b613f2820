// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/arassch/networth-planner/internal/domain"

	"github.com/shopspring/decimal"
)

// Converter converts amounts into a base currency. Implementations must be
// pure, synchronous and total: an unknown currency code converts at identity
// rather than failing, so one bad code can't abort a calculation.
type Converter interface {
	ToBase(amount decimal.Decimal, from string) decimal.Decimal
	Base() string
}

// RateSource produces a frozen Converter snapshot for a base currency.
// The snapshot may come from a remote rates API; the engine only ever sees
// the pure Converter.
type RateSource interface {
	Snapshot(ctx context.Context, base string) (Converter, error)
}

// PortfolioStore persists the portfolio aggregate. Implementations return
// isolated copies: mutating a returned portfolio must not affect the store
// until Put is called.
type PortfolioStore interface {
	Get(ctx context.Context, id string) (*domain.Portfolio, error)
	Put(ctx context.Context, p *domain.Portfolio) error
	Delete(ctx context.Context, id string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
