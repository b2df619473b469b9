package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/trust-insurance/quotation/internal/metrics"
	"github.com/trust-insurance/quotation/internal/quote"
	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/internal/store"
	"github.com/trust-insurance/quotation/pkg/model"
	"github.com/trust-insurance/quotation/pkg/utils"
)

const createAttempts = 3

// Rater computes premiums.
type Rater interface {
	CalculatePremium(ctx context.Context, req model.QuotationRequest) (*model.PremiumResult, error)
}

// QuoteStore persists quotes.
type QuoteStore interface {
	CreateQuote(ctx context.Context, q model.Quote) error
	GetQuote(ctx context.Context, quoteID string) (*model.Quote, error)
	TransitionQuote(ctx context.Context, quoteID string, next model.QuoteStatus) (*model.Quote, error)
}

// EventPublisher announces quote lifecycle events.
type EventPublisher interface {
	PublishQuoteCreated(ctx context.Context, q model.Quote, validUntil time.Time) error
	PublishStatusChanged(ctx context.Context, q model.Quote, from model.QuoteStatus) error
}

// QuoteHandler handles HTTP API requests for quotes.
type QuoteHandler struct {
	logger    *zap.Logger
	rater     Rater
	assembler *quote.Assembler
	store     QuoteStore
	publisher EventPublisher
	validate  *Validator
	validity  time.Duration
}

// NewQuoteHandler creates a new QuoteHandler.
// publisher is optional; if nil, no events are emitted.
func NewQuoteHandler(logger *zap.Logger, rater Rater, assembler *quote.Assembler, st QuoteStore, pub EventPublisher, validity time.Duration) *QuoteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteHandler{
		logger:    logger,
		rater:     rater,
		assembler: assembler,
		store:     st,
		publisher: pub,
		validate:  NewValidator(),
		validity:  validity,
	}
}

func (h *QuoteHandler) parseQuoteRequest(c *fiber.Ctx) (model.QuotationRequest, error) {
	var req QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return model.QuotationRequest{}, &rating.ValidationError{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	if err := h.validate.Struct(req); err != nil {
		return model.QuotationRequest{}, err
	}
	return req.toModel(), nil
}

// PreviewQuote rates a request without persisting anything.
func (h *QuoteHandler) PreviewQuote(c *fiber.Ctx) error {
	req, err := h.parseQuoteRequest(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.rater.CalculatePremium(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// CreateQuote rates, assembles, persists and announces a quote.
func (h *QuoteHandler) CreateQuote(c *fiber.Ctx) error {
	req, err := h.parseQuoteRequest(c)
	if err != nil {
		return writeError(c, err)
	}
	q, res, err := h.createQuote(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(CreateQuoteResponse{
		Quote:      q,
		Premium:    res,
		ValidUntil: h.validUntil(q),
	})
}

// CreateQuoteFromChat handles the chatbot hand-off: the line comes from the
// path and the customer details from the collected slots.
func (h *QuoteHandler) CreateQuoteFromChat(c *fiber.Ctx) error {
	var body ChatQuoteRequest
	if err := c.BodyParser(&body); err != nil {
		return h.chatError(c, &rating.ValidationError{Field: "body", Message: "invalid request body: " + err.Error()})
	}
	if err := h.validate.Struct(body); err != nil {
		return h.chatError(c, err)
	}

	slots := model.Slots(body.Slots)
	if !slots.Has("email") {
		return h.chatError(c, &rating.ValidationError{Field: "email", Message: "email is required"})
	}
	email, _ := slots["email"].(string)
	if err := h.validate.v.Var(strings.TrimSpace(email), "email"); err != nil {
		return h.chatError(c, &rating.ValidationError{Field: "email", Message: "email must be a valid email address"})
	}

	req := model.QuotationRequest{Line: c.Params("line"), Slots: slots}
	q, _, err := h.createQuote(c.UserContext(), req)
	if err != nil {
		return h.chatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ChatQuoteResponse{
		OK:        true,
		QuoteID:   q.QuoteID,
		Line:      q.Line,
		Premium:   q.TotalPremium,
		Currency:  q.Currency,
		RiskScore: q.RiskScore,
	})
}

func (h *QuoteHandler) chatError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(ChatQuoteResponse{OK: false, Error: errorBody(err).Error})
}

func (h *QuoteHandler) createQuote(ctx context.Context, req model.QuotationRequest) (model.Quote, *model.PremiumResult, error) {
	res, err := h.rater.CalculatePremium(ctx, req)
	if err != nil {
		return model.Quote{}, nil, err
	}

	var q model.Quote
	for attempt := 1; ; attempt++ {
		q = h.assembler.Assemble(req, res)
		err = h.store.CreateQuote(ctx, q)
		if err == nil {
			break
		}
		// A fresh id is drawn on every attempt.
		if errors.Is(err, store.ErrQuoteExists) && attempt < createAttempts {
			continue
		}
		h.logger.Error("api.create_quote.persist_failed",
			zap.String("quote_id", q.QuoteID),
			zap.Error(err))
		metrics.IncError("api", "persist_failed")
		return model.Quote{}, nil, err
	}

	metrics.IncQuoteCreated(q.Line.String())
	h.logger.Info("api.create_quote.done",
		zap.String("quote_id", q.QuoteID),
		zap.String("line", q.Line.String()),
		zap.String("customer", utils.MaskEmail(q.CustomerEmail)),
		zap.Float64("total_premium", q.TotalPremium))

	if h.publisher != nil {
		if err := h.publisher.PublishQuoteCreated(ctx, q, h.validUntil(q)); err != nil {
			// Document and email delivery can be replayed; the quote stands.
			h.logger.Warn("api.create_quote.publish_failed",
				zap.String("quote_id", q.QuoteID),
				zap.Error(err))
		}
	}
	return q, res, nil
}

func (h *QuoteHandler) validUntil(q model.Quote) time.Time {
	return q.CreatedAt.Add(h.validity)
}

// GetQuote returns a stored quote.
func (h *QuoteHandler) GetQuote(c *fiber.Ctx) error {
	q, err := h.store.GetQuote(c.UserContext(), c.Params("quoteId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(q)
}

// UpdateQuoteStatus applies a lifecycle transition.
func (h *QuoteHandler) UpdateQuoteStatus(c *fiber.Ctx) error {
	var req StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, &rating.ValidationError{Field: "body", Message: "invalid request body: " + err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return writeError(c, err)
	}

	quoteID := c.Params("quoteId")
	next := model.QuoteStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

	current, err := h.store.GetQuote(c.UserContext(), quoteID)
	if err != nil {
		return writeError(c, err)
	}
	updated, err := h.store.TransitionQuote(c.UserContext(), quoteID, next)
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			h.logger.Info("api.update_status.rejected",
				zap.String("quote_id", quoteID),
				zap.String("to", string(next)),
				zap.Error(err))
		}
		return writeError(c, err)
	}

	metrics.IncTransition(string(current.Status), string(updated.Status))
	if h.publisher != nil {
		if err := h.publisher.PublishStatusChanged(c.UserContext(), *updated, current.Status); err != nil {
			h.logger.Warn("api.update_status.publish_failed",
				zap.String("quote_id", quoteID),
				zap.Error(err))
		}
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}
