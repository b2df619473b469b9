package rating

import "github.com/trust-insurance/quotation/pkg/model"

// Engine computes a premium for one line. Implementations must be pure:
// identical inputs give an identical result.
type Engine interface {
	Rate(req model.QuotationRequest, rates model.RateTable, options []model.CoverageOption) (*model.PremiumResult, error)
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(req model.QuotationRequest, rates model.RateTable, options []model.CoverageOption) (*model.PremiumResult, error)

func (f EngineFunc) Rate(req model.QuotationRequest, rates model.RateTable, options []model.CoverageOption) (*model.PremiumResult, error) {
	return f(req, rates, options)
}

// LineRater binds an engine to the slots its line cannot be rated without.
type LineRater struct {
	Engine   Engine
	Required []string
}

const defaultCurrency = "MYR"

func itemLabels(items []model.CoverageItem) []string {
	labels := make([]string, 0, len(items))
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	return labels
}
