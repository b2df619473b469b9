package rating

import (
	"strings"
	"time"

	"github.com/trust-insurance/quotation/pkg/model"
)

const (
	motorDefaultBase    = 400.0
	motorDefaultPerYear = 20.0

	motorSSTRate    = 0.06
	motorStampDuty  = 10.0
	motorRiskBase   = 50
	motorRiskKLLoad = 8
	motorKLRegion   = "Kuala Lumpur"

	MotorBasicCode  = "BASIC_MOTOR"
	MotorBasicLabel = "Motor Basic Premium"
)

// MotorRequiredSlots lists the slots a Motor request cannot be rated without.
var MotorRequiredSlots = []string{"year", "usage", "region", "ncd_percent"}

var motorRules = []string{
	"AgeLoad",
	"UsageFactor",
	"RegionFactor",
	"NCD",
	"SST",
	"StampDuty",
	"CoverageOptions",
}

// MotorEngine rates Motor requests. Now supplies the current year for the
// vehicle age; it defaults to time.Now.
type MotorEngine struct {
	Now func() time.Time
}

// NewMotorEngine returns a MotorEngine using now as its clock.
func NewMotorEngine(now func() time.Time) *MotorEngine {
	return &MotorEngine{Now: now}
}

func (e *MotorEngine) currentYear() int {
	if e.Now == nil {
		return time.Now().Year()
	}
	return e.Now().Year()
}

// Rate applies the Motor rules: vehicle age load, usage and region factors,
// no-claim discount, SST and stamp duty, then the enabled coverage options.
func (e *MotorEngine) Rate(req model.QuotationRequest, rates model.RateTable, options []model.CoverageOption) (*model.PremiumResult, error) {
	slots := req.Slots
	thisYear := e.currentYear()

	year, err := intSlot(slots, "year", thisYear)
	if err != nil {
		return nil, err
	}
	ncd, err := floatSlot(slots, "ncd_percent", 0)
	if err != nil {
		return nil, err
	}
	if !(ncd >= 0 && ncd <= 100) {
		return nil, &ValidationError{Field: "ncd_percent", Message: "ncd_percent must be between 0 and 100"}
	}
	sumInsured, err := floatSlot(slots, "sum_insured", 0)
	if err != nil {
		return nil, err
	}
	usage := stringSlot(slots, "usage", "")
	region := stringSlot(slots, "region", "")

	vehicleAge := max(0, thisYear-year)
	ageLoad := rates.PerYearOr(motorDefaultPerYear) * float64(vehicleAge)
	basePremium := rates.BaseOr(motorDefaultBase) + ageLoad

	usageFactor := factorOr(rates.UsageFactors, usage, 1.0)
	regionFactor := factorOr(rates.RegionFactors, region, 1.0)
	discount := 1 - ncd/100.0

	subtotal := basePremium * usageFactor * regionFactor * discount
	corePremium := Round2(subtotal + subtotal*motorSSTRate + motorStampDuty)

	items := []model.CoverageItem{{
		Code:   MotorBasicCode,
		Label:  MotorBasicLabel,
		Amount: corePremium,
	}}

	for _, opt := range options {
		if isBasicCoverage(opt.Code) {
			continue
		}
		if !opt.DefaultOn && !slots.Flag(opt.Code+"_enabled") {
			continue
		}
		var amount float64
		if opt.LoadFactor < 1.0 && sumInsured > 0 {
			amount = Round2(sumInsured * opt.LoadFactor)
		} else {
			amount = Round2(opt.LoadFactor)
		}
		items = append(items, model.CoverageItem{
			Code:   opt.Code,
			Label:  opt.Label,
			Amount: amount,
		})
	}

	total := sumItems(items)

	risk := motorRiskBase + 2*vehicleAge - int(ncd/2)
	if strings.EqualFold(region, motorKLRegion) {
		risk += motorRiskKLLoad
	}

	labels := itemLabels(items)
	return &model.PremiumResult{
		BasePremium:  Round2(basePremium),
		TotalPremium: total,
		RiskScore:    clampInt(risk, 0, 100),
		Breakdown: &model.PremiumBreakdown{
			Currency:     rates.CurrencyOr(defaultCurrency),
			SumInsured:   sumInsured,
			Items:        items,
			TotalPremium: total,
			SummaryExplanation: "Premium based on vehicle age, usage, region, NCD and selected coverages: " +
				strings.Join(labels, ", "),
		},
		Coverages:    labels,
		AppliedRules: append([]string(nil), motorRules...),
	}, nil
}

func isBasicCoverage(code string) bool {
	return strings.EqualFold(code, "BASIC") || strings.EqualFold(code, MotorBasicCode)
}

func factorOr(factors map[string]float64, key string, def float64) float64 {
	if f, ok := factors[key]; ok {
		return f
	}
	return def
}
