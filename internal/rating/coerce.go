package rating

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/trust-insurance/quotation/pkg/model"
)

// CoerceFloat converts a loosely-typed value to float64.
// Numbers pass through; strings are parsed. Anything else, including
// booleans, is a *CoercionError.
func CoerceFloat(field string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &CoercionError{Field: field, Value: v, Want: "number"}
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &CoercionError{Field: field, Value: v, Want: "number"}
		}
		return f, nil
	}
	return 0, &CoercionError{Field: field, Value: v, Want: "number"}
}

// CoerceInt converts a loosely-typed value to int. Fractional numbers are
// truncated toward zero; strings must hold an integer literal. Values
// outside the int32 range are rejected.
func CoerceInt(field string, v any) (int, error) {
	bad := &CoercionError{Field: field, Value: v, Want: "integer"}
	switch n := v.(type) {
	case int:
		return intInRange(int64(n), bad)
	case int32:
		return int(n), nil
	case int64:
		return intInRange(n, bad)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, bad
		}
		return intInRange(i, bad)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return intInRange(i, bad)
		}
	}
	f, err := CoerceFloat(field, v)
	if err != nil {
		return 0, bad
	}
	// Also rejects NaN.
	if !(f >= math.MinInt32 && f <= math.MaxInt32) {
		return 0, bad
	}
	return int(f), nil
}

func intInRange(i int64, bad *CoercionError) (int, error) {
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, bad
	}
	return int(i), nil
}

func floatSlot(s model.Slots, key string, def float64) (float64, error) {
	if !s.Has(key) {
		return def, nil
	}
	return CoerceFloat(key, s[key])
}

func intSlot(s model.Slots, key string, def int) (int, error) {
	if !s.Has(key) {
		return def, nil
	}
	return CoerceInt(key, s[key])
}

func stringSlot(s model.Slots, key, def string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return def
	}
	if str, isStr := v.(string); isStr {
		return strings.TrimSpace(str)
	}
	return fmt.Sprint(v)
}
