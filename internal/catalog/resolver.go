// Package catalog resolves the active rate table and coverage catalogue
// for an insurance line from a product Source.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trust-insurance/quotation/internal/metrics"
	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/pkg/cache"
	"github.com/trust-insurance/quotation/pkg/model"
)

// ErrNoActiveProduct is wrapped by Sources when a line has no active product.
// It matches rating.ErrNotFound.
var ErrNoActiveProduct = fmt.Errorf("no active product: %w", rating.ErrNotFound)

// Source is a product catalogue: Postgres in production, Memory in dev and tests.
type Source interface {
	ActiveProduct(ctx context.Context, line model.Line) (model.Product, error)
	CoverageOptions(ctx context.Context, productID string) ([]model.CoverageOption, error)
}

// Lister is the read-only browse view of a catalogue. An empty line lists
// every product.
type Lister interface {
	ListProducts(ctx context.Context, line model.Line) ([]model.Product, error)
}

type resolvedRates struct {
	table     model.RateTable
	productID string
}

// Resolver implements rating.Resolver over a Source.
type Resolver struct {
	logger   *zap.Logger
	source   Source
	fallback model.RateTable

	rates   *cache.Cache[resolvedRates]
	options *cache.Cache[[]model.CoverageOption]
}

var _ rating.Resolver = (*Resolver)(nil)

// NewResolver builds a resolver. fallback is used for products that carry
// no rate document. ttl > 0 enables the snapshot cache; ttl <= 0 reads the
// source on every call.
func NewResolver(logger *zap.Logger, source Source, fallback model.RateTable, ttl time.Duration) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		logger:   logger,
		source:   source,
		fallback: fallback,
		rates:    cache.New[resolvedRates](ttl),
		options:  cache.New[[]model.CoverageOption](ttl),
	}
}

// FallbackRates builds the explicit rate table used for products without
// a rate document.
func FallbackRates(base, perYear float64, currency string) model.RateTable {
	return model.RateTable{
		Base:       base,
		HasBase:    true,
		PerYear:    perYear,
		HasPerYear: true,
		Currency:   currency,
	}
}

// ResolveRateTable returns the rate table of the line's active product and
// that product's id.
func (r *Resolver) ResolveRateTable(ctx context.Context, line model.Line) (model.RateTable, string, error) {
	key := line.String()
	if hit, ok := r.rates.Get(key); ok {
		r.cacheAccess("rate_table", "hit")
		return hit.table, hit.productID, nil
	}
	r.cacheAccess("rate_table", "miss")

	product, err := r.source.ActiveProduct(ctx, line)
	if err != nil {
		if !errors.Is(err, rating.ErrNotFound) {
			metrics.IncError("catalog", "active_product")
			r.logger.Error("catalog.active_product_failed", zap.String("line", key), zap.Error(err))
		}
		return model.RateTable{}, "", err
	}

	table := r.fallback
	if len(product.BaseRates) > 0 {
		table, err = ParseRateTable(product.BaseRates)
		if err != nil {
			r.logger.Warn("catalog.rate_document_invalid",
				zap.String("product_id", product.ID),
				zap.Error(err))
			return model.RateTable{}, "", err
		}
	} else {
		r.logger.Debug("catalog.rate_document_missing", zap.String("product_id", product.ID))
	}

	r.rates.Put(key, resolvedRates{table: table, productID: product.ID})
	return table, product.ID, nil
}

// ResolveCoverageOptions returns the coverage catalogue of a product.
func (r *Resolver) ResolveCoverageOptions(ctx context.Context, productID string) ([]model.CoverageOption, error) {
	if hit, ok := r.options.Get(productID); ok {
		r.cacheAccess("coverage_options", "hit")
		return hit, nil
	}
	r.cacheAccess("coverage_options", "miss")

	opts, err := r.source.CoverageOptions(ctx, productID)
	if err != nil {
		metrics.IncError("catalog", "coverage_options")
		return nil, fmt.Errorf("coverage options for %s: %w", productID, err)
	}
	r.options.Put(productID, opts)
	return opts, nil
}

// Invalidate drops every cached snapshot.
func (r *Resolver) Invalidate() {
	r.rates.Flush()
	r.options.Flush()
}

// StartCleaner drops expired snapshots every interval until stop is closed.
// It blocks, and returns at once when caching is disabled.
func (r *Resolver) StartCleaner(interval time.Duration, stop <-chan struct{}) {
	if !r.rates.Enabled() || interval <= 0 {
		return
	}
	go r.options.StartCleaner(interval, stop)
	r.rates.StartCleaner(interval, stop)
}

func (r *Resolver) cacheAccess(name, result string) {
	if r.rates.Enabled() {
		metrics.IncCache(name, result)
	}
}
