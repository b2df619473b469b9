package rating

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trust-insurance/quotation/internal/metrics"
	"github.com/trust-insurance/quotation/pkg/model"
)

// Resolver supplies the active rate table and coverage catalogue for a line.
// ResolveRateTable must wrap ErrNotFound when the line has no active product.
type Resolver interface {
	ResolveRateTable(ctx context.Context, line model.Line) (model.RateTable, string, error)
	ResolveCoverageOptions(ctx context.Context, productID string) ([]model.CoverageOption, error)
}

// Dispatcher validates a request, resolves its rates and routes it to the
// engine registered for its line. It does no rating math itself.
type Dispatcher struct {
	logger   *zap.Logger
	resolver Resolver

	mu     sync.RWMutex
	raters map[model.Line]LineRater
}

// NewDispatcher creates a dispatcher with no lines registered.
func NewDispatcher(logger *zap.Logger, resolver Resolver) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:   logger,
		resolver: resolver,
		raters:   make(map[model.Line]LineRater),
	}
}

// NewDefaultDispatcher creates a dispatcher with the Motor and Life engines
// registered. now is the Motor engine's clock.
func NewDefaultDispatcher(logger *zap.Logger, resolver Resolver, now func() time.Time) *Dispatcher {
	d := NewDispatcher(logger, resolver)
	d.Register(model.LineMotor, LineRater{Engine: NewMotorEngine(now), Required: MotorRequiredSlots})
	d.Register(model.LineLife, LineRater{Engine: NewLifeEngine(), Required: LifeRequiredSlots})
	return d
}

// Register binds a rater to a line, replacing any previous one.
func (d *Dispatcher) Register(line model.Line, r LineRater) {
	d.mu.Lock()
	d.raters[line] = r
	d.mu.Unlock()
}

// Lines returns the registered lines.
func (d *Dispatcher) Lines() []model.Line {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Line, 0, len(d.raters))
	for l := range d.raters {
		out = append(out, l)
	}
	return out
}

func (d *Dispatcher) rater(raw string) (model.Line, LineRater, bool) {
	line, _ := model.ParseLine(raw)
	d.mu.RLock()
	r, ok := d.raters[line]
	d.mu.RUnlock()
	return line, r, ok
}

// Validate checks the line and the line's required slots without resolving
// or rating anything.
func (d *Dispatcher) Validate(req model.QuotationRequest) (model.Line, LineRater, error) {
	if strings.TrimSpace(req.Line) == "" {
		return "", LineRater{}, &ValidationError{Field: "line", Message: "Insurance line is required"}
	}
	line, r, ok := d.rater(req.Line)
	if !ok {
		return line, LineRater{}, &RatingError{Message: "Unsupported line: " + strings.TrimSpace(req.Line)}
	}
	for _, field := range r.Required {
		if !req.Slots.Has(field) {
			return line, r, missingField(field)
		}
	}
	return line, r, nil
}

// CalculatePremium rates req. Errors from validation, resolution and the
// engine are returned unchanged.
func (d *Dispatcher) CalculatePremium(ctx context.Context, req model.QuotationRequest) (*model.PremiumResult, error) {
	start := time.Now()
	d.logger.Info("rating.calculate.start", zap.String("line", req.Line))

	line, r, err := d.Validate(req)
	if err != nil {
		d.fail(line, err)
		return nil, err
	}

	rates, productID, err := d.resolver.ResolveRateTable(ctx, line)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = &RatingError{Message: "No active product for line: " + line.String(), Err: err}
		} else if !errors.Is(err, ErrRating) {
			err = &RatingError{Message: fmt.Sprintf("rate table lookup failed for line %s", line), Err: err}
		}
		d.fail(line, err)
		return nil, err
	}

	options, err := d.resolver.ResolveCoverageOptions(ctx, productID)
	if err != nil {
		if !errors.Is(err, ErrRating) {
			err = &RatingError{Message: fmt.Sprintf("coverage lookup failed for product %s", productID), Err: err}
		}
		d.fail(line, err)
		return nil, err
	}

	result, err := r.Engine.Rate(req, rates, options)
	if err != nil {
		d.fail(line, err)
		return nil, err
	}

	metrics.IncRating(line.String(), "ok")
	metrics.ObserveDuration(metrics.RatingDuration, start, line.String())
	d.logger.Info("rating.calculate.done",
		zap.String("line", line.String()),
		zap.String("product_id", productID),
		zap.Float64("total_premium", result.TotalPremium),
		zap.Int("risk_score", result.RiskScore),
	)
	return result, nil
}

func (d *Dispatcher) fail(line model.Line, err error) {
	outcome := "rating"
	if errors.Is(err, ErrValidation) {
		outcome = "validation"
	}
	label := line.String()
	if _, _, ok := d.rater(label); !ok {
		label = "unsupported"
	}
	metrics.IncRating(label, outcome)
	d.logger.Warn("rating.calculate.failed",
		zap.String("line", label),
		zap.String("outcome", outcome),
		zap.Error(err),
	)
}
