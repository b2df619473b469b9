package rating

import (
	"strings"

	"github.com/trust-insurance/quotation/pkg/model"
)

const (
	lifeDefaultBase       = 35.0
	lifeDefaultSmokerLoad = 1.35
	lifeIncomeDivisor     = 5000.0
	lifeCriticalIllness   = 0.35

	LifeBasicCode            = "BASE_LIFE"
	LifeBasicLabel           = "Base Life Premium"
	CriticalIllnessCode      = "CRITICAL_ILLNESS"
	CriticalIllnessLabel     = "Critical Illness Rider"
	lifeSummary              = "Premium calculated based on age, income, smoker status, and selected riders."
	criticalIllnessEnabledOn = CriticalIllnessCode + "_enabled"
)

// LifeRequiredSlots lists the slots a Life request cannot be rated without.
var LifeRequiredSlots = []string{"age", "income", "smoker_status"}

// RoundOrder selects when the base premium is rounded relative to the
// income multiplier.
type RoundOrder int

const (
	// RoundThenMultiply rounds the base premium to cents, then applies the
	// multiplier to the rounded value.
	RoundThenMultiply RoundOrder = iota
	// MultiplyThenRound applies the multiplier to the unrounded base premium.
	MultiplyThenRound
)

// LifeEngine rates Life requests.
type LifeEngine struct {
	RoundOrder RoundOrder
}

// NewLifeEngine returns a LifeEngine using the round-then-multiply order.
func NewLifeEngine() *LifeEngine {
	return &LifeEngine{RoundOrder: RoundThenMultiply}
}

// Rate applies the Life rules: age band factor, smoker load and the income
// multiplier. Coverage options are not used by this line.
func (e *LifeEngine) Rate(req model.QuotationRequest, rates model.RateTable, _ []model.CoverageOption) (*model.PremiumResult, error) {
	slots := req.Slots

	age, err := intSlot(slots, "age", 0)
	if err != nil {
		return nil, err
	}
	income, err := floatSlot(slots, "income", 0)
	if err != nil {
		return nil, err
	}
	smoker := isSmoker(stringSlot(slots, "smoker_status", "no"))

	ageFactor := ageBandFactor(rates.AgeBands, age)
	smokerLoad := 1.0
	if smoker {
		smokerLoad = rates.SmokerLoadOr(lifeDefaultSmokerLoad)
	}

	rawBase := rates.BaseOr(lifeDefaultBase) * ageFactor * smokerLoad
	basePremium := Round2(rawBase)
	multiplier := clampFloat(income/lifeIncomeDivisor, 1.0, 2.0)

	var total float64
	switch e.RoundOrder {
	case MultiplyThenRound:
		total = Round2(rawBase * multiplier)
	default:
		total = Round2(basePremium * multiplier)
	}

	risk := 45
	if smoker {
		risk = 75
	}
	if age > 45 {
		risk += 10
	}

	rules := []string{"AgeBand", "SmokerLoad", "IncomeMultiplier"}
	items := []model.CoverageItem{{
		Code:   LifeBasicCode,
		Label:  LifeBasicLabel,
		Amount: basePremium,
	}}
	if slots.Flag(criticalIllnessEnabledOn) {
		items = append(items, model.CoverageItem{
			Code:   CriticalIllnessCode,
			Label:  CriticalIllnessLabel,
			Amount: Round2(basePremium * lifeCriticalIllness),
		})
		rules = append(rules, "CriticalIllnessRider")
	}

	return &model.PremiumResult{
		BasePremium:  basePremium,
		TotalPremium: total,
		RiskScore:    clampInt(risk, 0, 100),
		Breakdown: &model.PremiumBreakdown{
			Currency:           rates.CurrencyOr(defaultCurrency),
			Items:              items,
			TotalPremium:       total,
			SummaryExplanation: lifeSummary,
		},
		Coverages:    itemLabels(items),
		AppliedRules: rules,
	}, nil
}

// ageBandFactor returns the factor of the first band containing age.
// Bands are scanned in order; 1.0 when none matches.
func ageBandFactor(bands []model.AgeBand, age int) float64 {
	for _, b := range bands {
		if age >= b.Min && age <= b.Max {
			return b.Factor
		}
	}
	return 1.0
}

func isSmoker(status string) bool {
	return strings.EqualFold(status, "yes") || strings.EqualFold(status, "smoker")
}
