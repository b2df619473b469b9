package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/pkg/cache"
	"github.com/trust-insurance/quotation/pkg/model"
)

// --- Mock Source ---

type countingSource struct {
	*Memory
	productCalls int
	optionCalls  int
	err          error
}

func (c *countingSource) ActiveProduct(ctx context.Context, line model.Line) (model.Product, error) {
	c.productCalls++
	if c.err != nil {
		return model.Product{}, c.err
	}
	return c.Memory.ActiveProduct(ctx, line)
}

func (c *countingSource) CoverageOptions(ctx context.Context, productID string) ([]model.CoverageOption, error) {
	c.optionCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Memory.CoverageOptions(ctx, productID)
}

func newCountingSource() *countingSource {
	m := NewMemory()
	m.Upsert(model.Product{
		ID: "MOTOR-1", Line: model.LineMotor, Active: true,
		BaseRates: map[string]any{"base": 500, "usage_factors": map[string]any{"private": 1.1}},
	})
	m.SetCoverageOptions("MOTOR-1", []model.CoverageOption{{Code: "FLOOD", Label: "Flood", LoadFactor: 75}})
	m.Upsert(model.Product{ID: "LIFE-1", Line: model.LineLife, Active: true})
	return &countingSource{Memory: m}
}

var testFallback = FallbackRates(400, 20, "MYR")

func TestResolver_ResolveRateTable(t *testing.T) {
	src := newCountingSource()
	r := NewResolver(nil, src, testFallback, 0)

	rt, productID, err := r.ResolveRateTable(context.Background(), model.LineMotor)
	require.NoError(t, err)
	assert.Equal(t, "MOTOR-1", productID)
	assert.Equal(t, 500.0, rt.Base)
	assert.False(t, rt.HasPerYear)
	assert.Equal(t, 1.1, rt.UsageFactors["private"])
}

func TestResolver_FallbackWhenNoRateDocument(t *testing.T) {
	r := NewResolver(nil, newCountingSource(), testFallback, 0)

	rt, productID, err := r.ResolveRateTable(context.Background(), model.LineLife)
	require.NoError(t, err)
	assert.Equal(t, "LIFE-1", productID)
	assert.Equal(t, testFallback, rt)
}

func TestResolver_NoActiveProduct(t *testing.T) {
	src := newCountingSource()
	src.Upsert(model.Product{ID: "MOTOR-1", Line: model.LineMotor, Active: false})
	r := NewResolver(nil, src, testFallback, 0)

	_, _, err := r.ResolveRateTable(context.Background(), model.LineMotor)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoActiveProduct)
	assert.ErrorIs(t, err, rating.ErrNotFound)
}

func TestResolver_MalformedRateDocument(t *testing.T) {
	src := newCountingSource()
	src.Upsert(model.Product{ID: "MOTOR-1", Line: model.LineMotor, Active: true,
		BaseRates: map[string]any{"per_year": "twenty"}})
	r := NewResolver(nil, src, testFallback, 0)

	_, _, err := r.ResolveRateTable(context.Background(), model.LineMotor)
	var ce *rating.CoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "per_year", ce.Field)
}

func TestResolver_NoCacheReadsEveryTime(t *testing.T) {
	src := newCountingSource()
	r := NewResolver(nil, src, testFallback, 0)

	for i := 0; i < 3; i++ {
		_, _, err := r.ResolveRateTable(context.Background(), model.LineMotor)
		require.NoError(t, err)
		_, err = r.ResolveCoverageOptions(context.Background(), "MOTOR-1")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.productCalls)
	assert.Equal(t, 3, src.optionCalls)
}

func TestResolver_CacheServesSnapshot(t *testing.T) {
	src := newCountingSource()
	r := NewResolver(nil, src, testFallback, time.Minute)

	for i := 0; i < 3; i++ {
		_, productID, err := r.ResolveRateTable(context.Background(), model.LineMotor)
		require.NoError(t, err)
		opts, err := r.ResolveCoverageOptions(context.Background(), productID)
		require.NoError(t, err)
		require.Len(t, opts, 1)
	}
	assert.Equal(t, 1, src.productCalls)
	assert.Equal(t, 1, src.optionCalls)

	// stale snapshot until invalidated
	src.Upsert(model.Product{ID: "MOTOR-1", Line: model.LineMotor, Active: true,
		BaseRates: map[string]any{"base": 600}})
	rt, _, _ := r.ResolveRateTable(context.Background(), model.LineMotor)
	assert.Equal(t, 500.0, rt.Base)

	r.Invalidate()
	rt, _, _ = r.ResolveRateTable(context.Background(), model.LineMotor)
	assert.Equal(t, 600.0, rt.Base)
	assert.Equal(t, 2, src.productCalls)
}

func TestResolver_StartCleanerEvictsExpiredSnapshots(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	src := newCountingSource()
	r := NewResolver(nil, src, testFallback, time.Minute)
	r.rates = cache.NewWithClock[resolvedRates](time.Minute, clock)
	r.options = cache.NewWithClock[[]model.CoverageOption](time.Minute, clock)

	_, productID, err := r.ResolveRateTable(context.Background(), model.LineMotor)
	require.NoError(t, err)
	_, err = r.ResolveCoverageOptions(context.Background(), productID)
	require.NoError(t, err)
	require.Equal(t, 1, r.rates.Len())
	require.Equal(t, 1, r.options.Len())

	stop := make(chan struct{})
	defer close(stop)
	go r.StartCleaner(5*time.Millisecond, stop)

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	assert.Eventually(t, func() bool {
		return r.rates.Len() == 0 && r.options.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestResolver_ErrorsAreNotCached(t *testing.T) {
	src := newCountingSource()
	src.err = errors.New("connection refused")
	r := NewResolver(nil, src, testFallback, time.Minute)

	_, _, err := r.ResolveRateTable(context.Background(), model.LineMotor)
	require.Error(t, err)
	_, err = r.ResolveCoverageOptions(context.Background(), "MOTOR-1")
	require.Error(t, err)

	src.err = nil
	_, _, err = r.ResolveRateTable(context.Background(), model.LineMotor)
	require.NoError(t, err)
	assert.Equal(t, 2, src.productCalls)
}

func TestResolver_WithDispatcher(t *testing.T) {
	m, err := LoadMemory("")
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	d := rating.NewDefaultDispatcher(nil, NewResolver(nil, m, testFallback, 0), now)

	res, err := d.CalculatePremium(context.Background(), model.QuotationRequest{
		Line:  "Motor",
		Slots: model.Slots{"year": 2015, "usage": "private", "region": "Selangor", "ncd_percent": 25},
	})
	require.NoError(t, err)
	// basic 542.57 plus the default-on roadside option
	assert.Equal(t, 568.07, res.TotalPremium)

	res, err = d.CalculatePremium(context.Background(), model.QuotationRequest{
		Line:  "life",
		Slots: model.Slots{"age": 50, "income": 10000, "smoker_status": "yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, 141.76, res.TotalPremium)
}
