// Package publisher emits quote lifecycle events to NATS JetStream.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/trust-insurance/quotation/internal/metrics"
	"github.com/trust-insurance/quotation/pkg/logger"
	"github.com/trust-insurance/quotation/pkg/model"
)

// Event types.
const (
	EventQuoteCreated       = "quote.created"
	EventQuoteStatusChanged = "quote.status_changed"
	EventQuoteExpired       = "quote.expired"

	eventVersion = "1.0.0"
)

// jetStream is the slice of nats.JetStreamContext the publisher needs.
type jetStream interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// Publisher wraps a NATS connection and provides helpers for publishing canonical events.
type Publisher struct {
	nc      *nats.Conn
	js      jetStream
	subject string // prefix, e.g. "evt.quotation"
	service string
	now     func() time.Time
}

// New creates a new Publisher with JetStream enabled.
func New(nc *nats.Conn, subject, service string) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return &Publisher{
		nc:      nc,
		js:      js,
		subject: subject,
		service: service,
		now:     time.Now,
	}, nil
}

// Subject returns the subject an event type is published on:
// <prefix>.<event type>.v1.
func (p *Publisher) Subject(eventType string) string {
	return p.subject + "." + eventType + ".v1"
}

// EnsureStream creates the events stream when it does not exist yet.
func (p *Publisher) EnsureStream(stream string) error {
	_, err := p.js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = p.js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{p.subject + ".>"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	if err != nil {
		return err
	}
	logger.S().Infow("publisher.stream_created", "stream", stream, "subjects", p.subject+".>")
	return nil
}

// PublishEnvelope serializes and publishes a canonical event envelope to NATS.
func (p *Publisher) PublishEnvelope(ctx context.Context, subject string, env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		logger.S().Errorw("publisher.marshal_failed",
			"subject", subject,
			"event_type", env.EventType,
			"error", err,
		)
		metrics.IncError("publisher", "marshal_failed")
		return err
	}

	if subject == "" {
		subject = p.Subject(env.EventType)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{env.EventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
			"quote_id":       []string{env.Context.QuoteID},
			"line":           []string{env.Context.Line.String()},
		},
	}

	start := time.Now()
	// Msg id lets JetStream drop duplicates of a retried publish.
	_, err = p.js.PublishMsg(msg, nats.MsgId(env.ID.String()), nats.Context(ctx))
	metrics.ObserveDuration(metrics.NATSMessageLatency, start, subject)

	if err != nil {
		logger.S().Errorw("publisher.publish_failed",
			"subject", subject,
			"event_type", env.EventType,
			"quote_id", env.Context.QuoteID,
			"error", err,
		)
		metrics.IncNATSMessage(subject, "error")
		return err
	}

	logger.S().Infow("publisher.publish_success",
		"subject", subject,
		"event_type", env.EventType,
		"quote_id", env.Context.QuoteID,
	)

	metrics.IncNATSMessage(subject, "ok")
	return nil
}

func (p *Publisher) envelope(eventType string, q model.Quote, payload any) (*model.Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		metrics.IncError("publisher", "marshal_failed")
		return nil, err
	}
	return &model.Envelope{
		ID:            uuid.New(),
		CorrelationID: uuid.New(),
		Topic:         p.Subject(eventType),
		EventType:     eventType,
		Version:       eventVersion,
		Timestamp:     p.now().UTC(),
		Payload:       data,
		Context: model.Context{
			QuoteID: q.QuoteID,
			Line:    q.Line,
			Status:  q.Status,
		},
	}, nil
}

// QuoteCreated is the payload of quote.created. Document rendering and
// customer notification consume it.
type QuoteCreated struct {
	model.Quote
	ValidUntil time.Time `json:"validUntil"`
}

// QuoteStatusChanged is the payload of quote.status_changed and quote.expired.
type QuoteStatusChanged struct {
	QuoteID   string            `json:"quoteId"`
	Line      model.Line        `json:"line"`
	From      model.QuoteStatus `json:"from"`
	To        model.QuoteStatus `json:"to"`
	ChangedAt time.Time         `json:"changedAt"`
}

// PublishQuoteCreated emits quote.created for a persisted quote.
func (p *Publisher) PublishQuoteCreated(ctx context.Context, q model.Quote, validUntil time.Time) error {
	env, err := p.envelope(EventQuoteCreated, q, QuoteCreated{Quote: q, ValidUntil: validUntil.UTC()})
	if err != nil {
		return err
	}
	return p.PublishEnvelope(ctx, env.Topic, env)
}

// PublishStatusChanged emits quote.status_changed, or quote.expired when
// the quote moved to EXPIRED.
func (p *Publisher) PublishStatusChanged(ctx context.Context, q model.Quote, from model.QuoteStatus) error {
	eventType := EventQuoteStatusChanged
	if q.Status == model.QuoteStatusExpired {
		eventType = EventQuoteExpired
	}
	env, err := p.envelope(eventType, q, QuoteStatusChanged{
		QuoteID:   q.QuoteID,
		Line:      q.Line,
		From:      from,
		To:        q.Status,
		ChangedAt: p.now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.PublishEnvelope(ctx, env.Topic, env)
}

// Healthy reports whether the underlying connection is up.
func (p *Publisher) Healthy() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close drains the connection so in-flight publishes are flushed.
func (p *Publisher) Close() error {
	if p.nc == nil || p.nc.IsClosed() {
		return nil
	}
	return p.nc.Drain()
}
