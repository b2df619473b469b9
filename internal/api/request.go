package api

import (
	"time"

	"github.com/trust-insurance/quotation/pkg/model"
)

// QuoteRequest is the payload of the preview and create endpoints.
type QuoteRequest struct {
	Line         string         `json:"line"`
	CustomerName string         `json:"customerName" validate:"omitempty,max=200"`
	Email        string         `json:"email" validate:"omitempty,email"`
	Slots        map[string]any `json:"slots"`
}

func (r QuoteRequest) toModel() model.QuotationRequest {
	return model.QuotationRequest{
		Line:         r.Line,
		CustomerName: r.CustomerName,
		Email:        r.Email,
		Slots:        model.Slots(r.Slots),
	}
}

// ChatQuoteRequest is the payload a chatbot posts once it has collected
// the customer's answers.
type ChatQuoteRequest struct {
	Slots map[string]any `json:"slots" validate:"required"`
}

// StatusUpdateRequest moves a quote along its lifecycle.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,quote_status"`
}

// CreateQuoteResponse is returned by the create endpoint.
type CreateQuoteResponse struct {
	Quote      model.Quote          `json:"quote"`
	Premium    *model.PremiumResult `json:"premium"`
	ValidUntil time.Time            `json:"validUntil"`
}

// ChatQuoteResponse is the compact reply the chatbot renders to the customer.
type ChatQuoteResponse struct {
	OK        bool       `json:"ok"`
	QuoteID   string     `json:"quoteId,omitempty"`
	Line      model.Line `json:"line,omitempty"`
	Premium   float64    `json:"premium,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	RiskScore int        `json:"riskScore,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
