// Package jobs holds the service's background loops.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trust-insurance/quotation/internal/metrics"
	"github.com/trust-insurance/quotation/pkg/model"
)

const sweepBatch = 200

// QuoteStore is the slice of the store the sweeper needs.
type QuoteStore interface {
	ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]model.Quote, error)
	TransitionQuote(ctx context.Context, quoteID string, next model.QuoteStatus) (*model.Quote, error)
}

// StatusPublisher announces status changes.
type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, q model.Quote, from model.QuoteStatus) error
}

// ExpirySweeper periodically marks quotes older than the validity window
// EXPIRED and emits quote.expired for each.
type ExpirySweeper struct {
	logger    *zap.Logger
	store     QuoteStore
	publisher StatusPublisher
	validity  time.Duration
	interval  time.Duration
	now       func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewExpirySweeper constructs a background job that runs every interval.
func NewExpirySweeper(logger *zap.Logger, store QuoteStore, pub StatusPublisher, validity, interval time.Duration) *ExpirySweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirySweeper{
		logger:    logger,
		store:     store,
		publisher: pub,
		validity:  validity,
		interval:  interval,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is canceled.
func (s *ExpirySweeper) Start(ctx context.Context) {
	if s.interval <= 0 || s.validity <= 0 {
		s.logger.Info("expiry_sweeper.disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry_sweeper.started",
		zap.Duration("interval", s.interval),
		zap.Duration("validity", s.validity))

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopCh:
			s.logger.Info("expiry_sweeper.stopped (manual stop)")
			return
		case <-ctx.Done():
			s.logger.Info("expiry_sweeper.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the sweeper. It is safe to call more than once.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// RunOnce expires one batch of stale quotes and returns how many moved.
func (s *ExpirySweeper) RunOnce(ctx context.Context) int {
	start := s.now()
	cutoff := start.Add(-s.validity)

	quotes, err := s.store.ListExpirable(ctx, cutoff, sweepBatch)
	if err != nil {
		s.logger.Error("expiry_sweeper.list_failed", zap.Error(err))
		metrics.IncError("expiry_sweeper", "list_failed")
		return 0
	}

	expired := 0
	for _, q := range quotes {
		from := q.Status
		updated, err := s.store.TransitionQuote(ctx, q.QuoteID, model.QuoteStatusExpired)
		if err != nil {
			// Accepted or cancelled since it was listed.
			if errors.Is(err, model.ErrInvalidTransition) {
				continue
			}
			s.logger.Warn("expiry_sweeper.transition_failed",
				zap.String("quote_id", q.QuoteID),
				zap.Error(err))
			metrics.IncError("expiry_sweeper", "transition_failed")
			continue
		}
		expired++
		metrics.IncTransition(string(from), string(updated.Status))

		if s.publisher != nil {
			if err := s.publisher.PublishStatusChanged(ctx, *updated, from); err != nil {
				s.logger.Warn("expiry_sweeper.nats_publish_failed",
					zap.String("quote_id", q.QuoteID),
					zap.Error(err))
			}
		}
	}

	metrics.SetLastSweep("expiry_sweeper", s.now())
	s.logger.Info("expiry_sweeper.success",
		zap.Int("candidates", len(quotes)),
		zap.Int("expired", expired),
		zap.Duration("duration", s.now().Sub(start)))
	return expired
}
