package model

import "strings"

// Slots holds the loosely-typed answers collected from the customer.
// Values are whatever the boundary decoded: float64, int, string, bool, json.Number.
type Slots map[string]any

// Has reports whether key is present with a usable value.
// A nil value or a blank string counts as absent.
func (s Slots) Has(key string) bool {
	v, ok := s[key]
	if !ok || v == nil {
		return false
	}
	if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
		return false
	}
	return true
}

// Flag reports whether key holds the boolean value true.
// Strings such as "true" do not count.
func (s Slots) Flag(key string) bool {
	b, ok := s[key].(bool)
	return ok && b
}

// Clone returns a shallow copy.
func (s Slots) Clone() Slots {
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// QuotationRequest is one customer's request for a premium on a given line.
// It is built by the request boundary and treated as immutable by the core.
type QuotationRequest struct {
	Line         string `json:"line"`
	CustomerName string `json:"customerName,omitempty"`
	Email        string `json:"email,omitempty"`
	Slots        Slots  `json:"slots"`
}
