package model

import (
	"errors"
	"fmt"
	"time"
)

// QuoteStatus is the lifecycle state of a persisted quote.
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "DRAFT"
	QuoteStatusPreviewed QuoteStatus = "PREVIEWED"
	QuoteStatusSent      QuoteStatus = "SENT"
	QuoteStatusAccepted  QuoteStatus = "ACCEPTED"
	QuoteStatusExpired   QuoteStatus = "EXPIRED"
	QuoteStatusCancelled QuoteStatus = "CANCELLED"
)

var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:     {QuoteStatusPreviewed, QuoteStatusSent, QuoteStatusExpired, QuoteStatusCancelled},
	QuoteStatusPreviewed: {QuoteStatusSent, QuoteStatusExpired, QuoteStatusCancelled},
	QuoteStatusSent:      {QuoteStatusAccepted, QuoteStatusExpired, QuoteStatusCancelled},
}

// Valid reports whether s is a known status.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusPreviewed, QuoteStatusSent,
		QuoteStatusAccepted, QuoteStatusExpired, QuoteStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s QuoteStatus) Terminal() bool {
	_, ok := quoteTransitions[s]
	return s.Valid() && !ok
}

// CanTransitionTo reports whether a quote in status s may move to next.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ErrInvalidTransition matches every *TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a lifecycle move the quote status does not allow.
type TransitionError struct {
	From QuoteStatus
	To   QuoteStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move quote from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Transition returns next if the move is allowed, a *TransitionError otherwise.
func (s QuoteStatus) Transition(next QuoteStatus) (QuoteStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, &TransitionError{From: s, To: next}
	}
	return next, nil
}

// Quote is the persisted view of a rated request.
type Quote struct {
	QuoteID          string         `json:"quoteId"`
	Line             Line           `json:"line"`
	Currency         string         `json:"currency"`
	CustomerName     string         `json:"customerName"`
	CustomerEmail    string         `json:"customerEmail"`
	RequestDetails   map[string]any `json:"requestDetails"`
	PremiumBreakdown map[string]any `json:"premiumBreakdown"`
	TotalPremium     float64        `json:"totalPremium"`
	RiskScore        int            `json:"riskScore"`
	Status           QuoteStatus    `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
}
