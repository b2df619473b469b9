package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical event envelope.
// Every message published to NATS by this service follows this format.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
	Context       Context         `json:"context,omitempty"`
}

// Context carries the routing attributes consumers filter on without
// decoding the payload.
type Context struct {
	QuoteID string      `json:"quote_id,omitempty"`
	Line    Line        `json:"line,omitempty"`
	Status  QuoteStatus `json:"status,omitempty"`
}
