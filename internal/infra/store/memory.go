// Package store provides the portfolio persistence adapters: an in-memory
// store for development and tests, and a Supabase (PostgREST) backed store
// for production.
package store

import (
	"context"
	"sync"

	"github.com/arassch/networth-planner/internal/domain"
)

// Memory is a mutex-guarded in-memory portfolio store. It hands out deep
// copies so callers can mutate freely and nothing leaks between the store
// and an in-flight calculation.
type Memory struct {
	mu         sync.RWMutex
	portfolios map[string]*domain.Portfolio
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{portfolios: make(map[string]*domain.Portfolio)}
}

// Get returns a deep copy of the portfolio.
func (m *Memory) Get(_ context.Context, id string) (*domain.Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.portfolios[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "portfolio", ID: id}
	}
	return p.Clone(), nil
}

// Put stores a deep copy of the portfolio, creating or replacing it.
func (m *Memory) Put(_ context.Context, p *domain.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.portfolios[p.ID] = p.Clone()
	return nil
}

// Delete removes a portfolio.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.portfolios[id]; !ok {
		return &domain.ErrNotFound{Resource: "portfolio", ID: id}
	}
	delete(m.portfolios, id)
	return nil
}
