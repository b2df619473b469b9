package quote

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trust-insurance/quotation/pkg/model"
)

var quoteIDPattern = regexp.MustCompile(`^Q-\d{8}-[0-9A-F]{6}$`)

func fixedAssembler() *Assembler {
	// 07:30 on the 2nd in Kuala Lumpur is still the 1st in UTC
	kl := time.FixedZone("MYT", 8*3600)
	a := NewAssembler(func() time.Time { return time.Date(2024, 3, 2, 7, 30, 0, 0, kl) })
	a.newID = func() uuid.UUID { return uuid.MustParse("9f3c2a1b-0000-4000-8000-000000000000") }
	return a
}

func motorResult() *model.PremiumResult {
	return &model.PremiumResult{
		BasePremium:  580,
		TotalPremium: 568.07,
		RiskScore:    56,
		Breakdown: &model.PremiumBreakdown{
			Currency:   "MYR",
			SumInsured: 45000,
			Items: []model.CoverageItem{
				{Code: "BASIC_MOTOR", Label: "Motor Basic Premium", Amount: 542.57},
				{Code: "ROADSIDE", Label: "Roadside Assistance", Amount: 25.5},
			},
			TotalPremium:       568.07,
			SummaryExplanation: "Premium based on vehicle age, usage, region, NCD and selected coverages: Motor Basic Premium, Roadside Assistance",
		},
		Coverages:    []string{"Motor Basic Premium", "Roadside Assistance"},
		AppliedRules: []string{"AgeLoad"},
	}
}

func TestAssemble_Fields(t *testing.T) {
	req := model.QuotationRequest{
		Line:         "motor",
		CustomerName: "Aisyah Rahman",
		Email:        "aisyah@example.com",
		Slots:        model.Slots{"year": 2015, "customer_name": "ignored"},
	}

	q := fixedAssembler().Assemble(req, motorResult())

	assert.Equal(t, "Q-20240301-9F3C2A", q.QuoteID)
	assert.Equal(t, model.LineMotor, q.Line)
	assert.Equal(t, "MYR", q.Currency)
	assert.Equal(t, "Aisyah Rahman", q.CustomerName)
	assert.Equal(t, "aisyah@example.com", q.CustomerEmail)
	assert.Equal(t, 568.07, q.TotalPremium)
	assert.Equal(t, 56, q.RiskScore)
	assert.Equal(t, model.QuoteStatusDraft, q.Status)
	assert.Equal(t, time.UTC, q.CreatedAt.Location())
	assert.Equal(t, 1, q.CreatedAt.Day())
}

func TestAssemble_BreakdownMap(t *testing.T) {
	q := fixedAssembler().Assemble(model.QuotationRequest{Line: "Motor"}, motorResult())

	pb := q.PremiumBreakdown
	assert.Equal(t, 580.0, pb["basePremium"])
	assert.Equal(t, 568.07, pb["totalPremium"])
	assert.Equal(t, 56, pb["riskScore"])
	assert.Equal(t, "MYR", pb["currency"])
	assert.Equal(t, 45000.0, pb["sumInsured"])
	assert.Contains(t, pb["summaryExplanation"], "Roadside Assistance")

	items, ok := pb["items"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, map[string]any{"code": "BASIC_MOTOR", "label": "Motor Basic Premium", "amount": 542.57}, items[0])
}

func TestAssemble_CustomerFallbacks(t *testing.T) {
	a := fixedAssembler()

	q := a.Assemble(model.QuotationRequest{
		Line:  "Life",
		Slots: model.Slots{"customer_name": " Tan Wei Ming ", "email": "tan@example.com"},
	}, motorResult())
	assert.Equal(t, "Tan Wei Ming", q.CustomerName)
	assert.Equal(t, "tan@example.com", q.CustomerEmail)

	q = a.Assemble(model.QuotationRequest{Line: "Life", Slots: model.Slots{"customer_name": 42}}, motorResult())
	assert.Equal(t, "Valued Customer", q.CustomerName)
	assert.Equal(t, "", q.CustomerEmail)
}

func TestAssemble_NoBreakdown(t *testing.T) {
	res := &model.PremiumResult{BasePremium: 70.88, TotalPremium: 141.76, RiskScore: 85}

	q := fixedAssembler().Assemble(model.QuotationRequest{Line: "Life"}, res)

	assert.Equal(t, "MYR", q.Currency)
	assert.Equal(t, map[string]any{"basePremium": 70.88, "totalPremium": 141.76, "riskScore": 85}, q.PremiumBreakdown)
}

func TestAssemble_RequestDetailsIsCopy(t *testing.T) {
	slots := model.Slots{"age": 50}
	q := fixedAssembler().Assemble(model.QuotationRequest{Line: "Life", Slots: slots}, motorResult())

	slots["age"] = 99
	assert.Equal(t, 50, q.RequestDetails["age"])
}

func TestAssemble_IDsUniqueAndWellFormed(t *testing.T) {
	a := NewAssembler(nil)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := a.Assemble(model.QuotationRequest{Line: "Motor"}, motorResult()).QuoteID
		assert.Regexp(t, quoteIDPattern, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
