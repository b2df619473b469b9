package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/trust-insurance/quotation/pkg/model"
)

// Memory is a thread-safe in-memory catalogue.
type Memory struct {
	mu       sync.RWMutex
	products map[string]model.Product
	options  map[string][]model.CoverageOption
}

var (
	_ Source = (*Memory)(nil)
	_ Lister = (*Memory)(nil)
)

// NewMemory returns an empty catalogue.
func NewMemory() *Memory {
	return &Memory{
		products: make(map[string]model.Product),
		options:  make(map[string][]model.CoverageOption),
	}
}

// Upsert stores p, replacing any product with the same id.
func (m *Memory) Upsert(p model.Product) {
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
}

// SetCoverageOptions replaces the coverage options of a product.
func (m *Memory) SetCoverageOptions(productID string, opts []model.CoverageOption) {
	cp := make([]model.CoverageOption, len(opts))
	for i, o := range opts {
		o.ProductID = productID
		cp[i] = o
	}
	m.mu.Lock()
	m.options[productID] = cp
	m.mu.Unlock()
}

// ActiveProduct returns the newest active product of a line. Ties on
// creation time go to the lowest id.
func (m *Memory) ActiveProduct(_ context.Context, line model.Line) (model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		best  model.Product
		found bool
	)
	for _, p := range m.products {
		if p.Line != line || !p.Active {
			continue
		}
		if !found || p.CreatedAt.After(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID < best.ID) {
			best, found = p, true
		}
	}
	if !found {
		return model.Product{}, fmt.Errorf("line %s: %w", line, ErrNoActiveProduct)
	}
	return best, nil
}

// CoverageOptions returns a copy of the product's options in insertion order.
func (m *Memory) CoverageOptions(_ context.Context, productID string) ([]model.CoverageOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	opts := m.options[productID]
	out := make([]model.CoverageOption, len(opts))
	copy(out, opts)
	return out, nil
}

// ListProducts returns products ordered by id.
func (m *Memory) ListProducts(_ context.Context, line model.Line) ([]model.Product, error) {
	m.mu.RLock()
	out := make([]model.Product, 0, len(m.products))
	for _, p := range m.products {
		if line == "" || p.Line == line {
			out = append(out, p)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
