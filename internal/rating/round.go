package rating

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/trust-insurance/quotation/pkg/model"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Round2 rounds v to two decimal places, half-up on v*100.
// The floor(x+0.5) step runs in decimal so no float error is added after
// the scaling multiply.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v * 100).Add(half).Floor().Div(hundred).InexactFloat64()
}

// sumItems returns round2 of the exact decimal sum of the item amounts.
func sumItems(items []model.CoverageItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Amount))
	}
	return Round2(total.InexactFloat64())
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
