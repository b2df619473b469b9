package model

// CoverageItem is one computed line of a premium breakdown.
type CoverageItem struct {
	Code   string  `json:"code"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// PremiumBreakdown is the itemized premium. Items are in computation order,
// with the basic coverage first.
type PremiumBreakdown struct {
	Currency           string         `json:"currency"`
	SumInsured         float64        `json:"sumInsured"`
	Items              []CoverageItem `json:"items"`
	TotalPremium       float64        `json:"totalPremium"`
	SummaryExplanation string         `json:"summaryExplanation"`
}

// PremiumResult is what a rating engine returns.
type PremiumResult struct {
	BasePremium  float64           `json:"basePremium"`
	TotalPremium float64           `json:"totalPremium"`
	RiskScore    int               `json:"riskScore"`
	Breakdown    *PremiumBreakdown `json:"breakdown"`
	Coverages    []string          `json:"coverages"`
	AppliedRules []string          `json:"appliedRules"`
}
