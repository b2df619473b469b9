package model

import "time"

// Product is the stored catalogue record for a line. BaseRates is the raw
// rate document; the catalog package parses it into a RateTable.
type Product struct {
	ID          string         `json:"id" yaml:"id"`
	Line        Line           `json:"line" yaml:"line"`
	Name        string         `json:"name" yaml:"name"`
	Provider    string         `json:"provider,omitempty" yaml:"provider"`
	Description string         `json:"description,omitempty" yaml:"description"`
	Active      bool           `json:"active" yaml:"active"`
	BaseRates   map[string]any `json:"baseRates,omitempty" yaml:"base_rates"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"-"`
}

// CoverageOption is one optional or mandatory add-on offered by a product.
type CoverageOption struct {
	ID          string  `json:"id" yaml:"id"`
	ProductID   string  `json:"productId" yaml:"product_id"`
	Code        string  `json:"code" yaml:"code"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description,omitempty" yaml:"description"`
	DefaultOn   bool    `json:"defaultOn" yaml:"default_on"`
	LoadFactor  float64 `json:"loadFactor" yaml:"load_factor"`
}

// AgeBand maps a closed age interval [Min, Max] to a rating factor.
type AgeBand struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Factor float64 `json:"factor"`
}

// RateTable holds the rating constants for one line. The Has* flags record
// which scalars the product actually specified so each engine can apply
// its own defaults.
type RateTable struct {
	Base          float64            `json:"base"`
	PerYear       float64            `json:"per_year"`
	SmokerLoad    float64            `json:"smoker_load"`
	AgeBands      []AgeBand          `json:"life_age_bands,omitempty"`
	UsageFactors  map[string]float64 `json:"usage_factors,omitempty"`
	RegionFactors map[string]float64 `json:"region_factors,omitempty"`
	Currency      string             `json:"currency"`

	HasBase       bool `json:"-"`
	HasPerYear    bool `json:"-"`
	HasSmokerLoad bool `json:"-"`
}

// BaseOr returns Base when the table specified it, def otherwise.
func (r RateTable) BaseOr(def float64) float64 {
	if r.HasBase {
		return r.Base
	}
	return def
}

// PerYearOr returns PerYear when the table specified it, def otherwise.
func (r RateTable) PerYearOr(def float64) float64 {
	if r.HasPerYear {
		return r.PerYear
	}
	return def
}

// SmokerLoadOr returns SmokerLoad when the table specified it, def otherwise.
func (r RateTable) SmokerLoadOr(def float64) float64 {
	if r.HasSmokerLoad {
		return r.SmokerLoad
	}
	return def
}

// CurrencyOr returns Currency when set, def otherwise.
func (r RateTable) CurrencyOr(def string) string {
	if r.Currency != "" {
		return r.Currency
	}
	return def
}
