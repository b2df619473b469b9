package catalog

import (
	"fmt"
	"strings"

	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/pkg/model"
)

// Keys understood in a product's base-rates document.
const (
	keyBase          = "base"
	keyPerYear       = "per_year"
	keySmokerLoad    = "smoker_load"
	keyAgeBands      = "life_age_bands"
	keyUsageFactors  = "usage_factors"
	keyRegionFactors = "region_factors"
	keyCurrency      = "currency"
)

// ParseRateTable converts a loosely-typed rate document into a RateTable.
// Absent keys are left for the engines to default; a present key of the
// wrong shape fails with a *rating.CoercionError.
func ParseRateTable(doc map[string]any) (model.RateTable, error) {
	var rt model.RateTable

	scalars := []struct {
		key string
		dst *float64
		has *bool
	}{
		{keyBase, &rt.Base, &rt.HasBase},
		{keyPerYear, &rt.PerYear, &rt.HasPerYear},
		{keySmokerLoad, &rt.SmokerLoad, &rt.HasSmokerLoad},
	}
	for _, s := range scalars {
		v, ok := doc[s.key]
		if !ok || v == nil {
			continue
		}
		f, err := rating.CoerceFloat(s.key, v)
		if err != nil {
			return model.RateTable{}, err
		}
		*s.dst, *s.has = f, true
	}

	var err error
	if rt.UsageFactors, err = factorMap(keyUsageFactors, doc[keyUsageFactors]); err != nil {
		return model.RateTable{}, err
	}
	if rt.RegionFactors, err = factorMap(keyRegionFactors, doc[keyRegionFactors]); err != nil {
		return model.RateTable{}, err
	}
	if rt.AgeBands, err = ageBands(doc[keyAgeBands]); err != nil {
		return model.RateTable{}, err
	}

	if v, ok := doc[keyCurrency]; ok && v != nil {
		s, isStr := v.(string)
		if !isStr {
			return model.RateTable{}, &rating.CoercionError{Field: keyCurrency, Value: v, Want: "string"}
		}
		rt.Currency = strings.ToUpper(strings.TrimSpace(s))
	}
	return rt, nil
}

func factorMap(field string, v any) (map[string]float64, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, &rating.CoercionError{Field: field, Value: v, Want: "object"}
	}
	out := make(map[string]float64, len(raw))
	for k, fv := range raw {
		f, err := rating.CoerceFloat(field+"."+k, fv)
		if err != nil {
			return nil, err
		}
		out[k] = f
	}
	return out, nil
}

// ageBands keeps document order; the Life engine takes the first match.
func ageBands(v any) ([]model.AgeBand, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, &rating.CoercionError{Field: keyAgeBands, Value: v, Want: "list"}
	}
	out := make([]model.AgeBand, 0, len(raw))
	for i, entry := range raw {
		field := fmt.Sprintf("%s[%d]", keyAgeBands, i)
		band, ok := entry.(map[string]any)
		if !ok {
			return nil, &rating.CoercionError{Field: field, Value: entry, Want: "object"}
		}
		lo, err := rating.CoerceInt(field+".min", band["min"])
		if err != nil {
			return nil, err
		}
		hi, err := rating.CoerceInt(field+".max", band["max"])
		if err != nil {
			return nil, err
		}
		factor, err := rating.CoerceFloat(field+".factor", band["factor"])
		if err != nil {
			return nil, err
		}
		out = append(out, model.AgeBand{Min: lo, Max: hi, Factor: factor})
	}
	return out, nil
}
