package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/pkg/model"
)

func TestParseRateTable_Motor(t *testing.T) {
	rt, err := ParseRateTable(map[string]any{
		"base":           400.0,
		"per_year":       "20",
		"currency":       " myr ",
		"usage_factors":  map[string]any{"private": 1.1, "commercial": 1.3},
		"region_factors": map[string]any{"Selangor": 1.05},
	})
	require.NoError(t, err)

	assert.True(t, rt.HasBase)
	assert.Equal(t, 400.0, rt.Base)
	assert.True(t, rt.HasPerYear)
	assert.Equal(t, 20.0, rt.PerYear)
	assert.False(t, rt.HasSmokerLoad)
	assert.Equal(t, "MYR", rt.Currency)
	assert.Equal(t, map[string]float64{"private": 1.1, "commercial": 1.3}, rt.UsageFactors)
	assert.Equal(t, map[string]float64{"Selangor": 1.05}, rt.RegionFactors)
}

func TestParseRateTable_LifeBandsKeepOrder(t *testing.T) {
	rt, err := ParseRateTable(map[string]any{
		"smoker_load": 1.35,
		"life_age_bands": []any{
			map[string]any{"min": 46, "max": 60, "factor": 1.5},
			map[string]any{"min": 18, "max": 30, "factor": 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []model.AgeBand{
		{Min: 46, Max: 60, Factor: 1.5},
		{Min: 18, Max: 30, Factor: 1.0},
	}, rt.AgeBands)
	assert.False(t, rt.HasBase)
}

func TestParseRateTable_EmptyDocument(t *testing.T) {
	rt, err := ParseRateTable(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, model.RateTable{}, rt)
}

func TestParseRateTable_Malformed(t *testing.T) {
	cases := map[string]map[string]any{
		"base not numeric":    {"base": "four hundred"},
		"factor not numeric":  {"usage_factors": map[string]any{"private": true}},
		"factors not a map":   {"region_factors": []any{1.0}},
		"bands not a list":    {"life_age_bands": "18-30"},
		"band without factor": {"life_age_bands": []any{map[string]any{"min": 18, "max": 30}}},
		"currency not string": {"currency": 458},
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRateTable(doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, rating.ErrCoercion))
			assert.True(t, errors.Is(err, rating.ErrRating))
		})
	}
}
