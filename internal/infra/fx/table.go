// Package fx provides currency conversion for the projection engine: a pure
// in-memory rate table the engine consumes, and the sources that produce it
// (a remote rates API or a static configuration table).
package fx

import (
	"context"
	"strings"

	"github.com/arassch/networth-planner/internal/port"

	"github.com/shopspring/decimal"
)

// Table is a frozen set of conversion rates into one base currency.
// Rates are expressed as base units per one unit of the foreign currency.
// Unknown or non-positive rates convert at identity, so a stray currency
// code can never abort a calculation. Table is immutable after creation
// and safe for concurrent use.
type Table struct {
	base  string
	rates map[string]decimal.Decimal
}

// NewTable builds a table for base with the given rates.
func NewTable(base string, rates map[string]decimal.Decimal) *Table {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		normalized[strings.ToUpper(code)] = rate
	}
	return &Table{base: strings.ToUpper(base), rates: normalized}
}

// Identity returns a table that converts everything at 1:1. Used as the
// fallback when no rate source is configured or reachable.
func Identity(base string) *Table {
	return NewTable(base, nil)
}

// Base returns the table's base currency code.
func (t *Table) Base() string {
	return t.base
}

// ToBase converts an amount from a currency into the base currency.
func (t *Table) ToBase(amount decimal.Decimal, from string) decimal.Decimal {
	from = strings.ToUpper(strings.TrimSpace(from))
	if from == "" || from == t.base {
		return amount
	}
	rate, ok := t.rates[from]
	if !ok || !rate.IsPositive() {
		return amount
	}
	return amount.Mul(rate)
}

// StaticSource serves a fixed table and never refreshes it. Used when the
// planner runs without a rates API.
type StaticSource struct {
	table *Table
}

// NewStaticSource creates a rate source around a fixed table.
func NewStaticSource(table *Table) *StaticSource {
	return &StaticSource{table: table}
}

// Snapshot implements port.RateSource.
func (s *StaticSource) Snapshot(_ context.Context, base string) (port.Converter, error) {
	if !strings.EqualFold(base, s.table.Base()) {
		return Identity(base), nil
	}
	return s.table, nil
}
