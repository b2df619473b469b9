// Package quote turns a rating result into a persistable quote record.
package quote

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trust-insurance/quotation/pkg/model"
)

const (
	defaultCustomerName = "Valued Customer"
	defaultCurrency     = "MYR"
	idSuffixLen         = 6
)

// Assembler builds Quote records. It does no I/O.
type Assembler struct {
	now   func() time.Time
	newID func() uuid.UUID
}

// NewAssembler returns an assembler using now for the quote date. A nil
// clock means time.Now.
func NewAssembler(now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{now: now, newID: uuid.New}
}

// Assemble combines the request and its premium result into a DRAFT quote.
func (a *Assembler) Assemble(req model.QuotationRequest, res *model.PremiumResult) model.Quote {
	created := a.now().UTC()
	line, _ := model.ParseLine(req.Line)

	q := model.Quote{
		QuoteID:          a.quoteID(created),
		Line:             line,
		Currency:         defaultCurrency,
		CustomerName:     customerName(req),
		CustomerEmail:    customerEmail(req),
		RequestDetails:   map[string]any(req.Slots.Clone()),
		PremiumBreakdown: map[string]any{},
		Status:           model.QuoteStatusDraft,
		CreatedAt:        created,
	}
	if res == nil {
		return q
	}

	q.TotalPremium = res.TotalPremium
	q.RiskScore = res.RiskScore
	q.PremiumBreakdown = breakdownMap(res)
	if bd := res.Breakdown; bd != nil && bd.Currency != "" {
		q.Currency = bd.Currency
	}
	return q
}

// quoteID renders Q-YYYYMMDD-XXXXXX.
func (a *Assembler) quoteID(t time.Time) string {
	suffix := strings.ToUpper(a.newID().String()[:idSuffixLen])
	return "Q-" + t.Format("20060102") + "-" + suffix
}

func breakdownMap(res *model.PremiumResult) map[string]any {
	pb := map[string]any{
		"basePremium":  res.BasePremium,
		"totalPremium": res.TotalPremium,
		"riskScore":    res.RiskScore,
	}
	bd := res.Breakdown
	if bd == nil {
		return pb
	}
	items := make([]map[string]any, 0, len(bd.Items))
	for _, it := range bd.Items {
		items = append(items, map[string]any{
			"code":   it.Code,
			"label":  it.Label,
			"amount": it.Amount,
		})
	}
	pb["currency"] = bd.Currency
	pb["sumInsured"] = bd.SumInsured
	pb["items"] = items
	pb["summaryExplanation"] = bd.SummaryExplanation
	return pb
}

func customerName(req model.QuotationRequest) string {
	if n := strings.TrimSpace(req.CustomerName); n != "" {
		return n
	}
	if s, ok := req.Slots["customer_name"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return defaultCustomerName
}

func customerEmail(req model.QuotationRequest) string {
	if e := strings.TrimSpace(req.Email); e != "" {
		return e
	}
	if s, ok := req.Slots["email"].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
