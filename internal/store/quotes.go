package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trust-insurance/quotation/pkg/model"
	"github.com/trust-insurance/quotation/pkg/utils"
)

const quoteKeyPrefix = "quote:"

func quoteKey(id string) string { return quoteKeyPrefix + id }

const quoteColumns = `quote_id, line, currency, customer_name, customer_email,
	request_details, premium_breakdown, total_premium, risk_score, status, created_at`

// CreateQuote persists q once. A second create with the same id fails
// with ErrQuoteExists and leaves the stored quote untouched.
func (s *HybridStore) CreateQuote(ctx context.Context, q model.Quote) error {
	if s.PG == nil {
		return s.createQuoteRedis(ctx, q)
	}

	tag, err := s.PG.Exec(ctx, `
		INSERT INTO quotes (`+quoteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (quote_id) DO NOTHING;
	`, q.QuoteID, q.Line, q.Currency, q.CustomerName, q.CustomerEmail,
		q.RequestDetails, q.PremiumBreakdown, q.TotalPremium, q.RiskScore, q.Status, q.CreatedAt)
	if err != nil {
		s.logger.Error("store.pg.insert_quote_failed",
			zap.String("quote_id", q.QuoteID),
			zap.Error(err))
		return fmt.Errorf("insert quote %s: %w", q.QuoteID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", q.QuoteID, ErrQuoteExists)
	}

	s.cacheQuote(ctx, q)
	s.logger.Info("store.quote_created",
		zap.String("quote_id", q.QuoteID),
		zap.String("customer", utils.MaskEmail(q.CustomerEmail)))
	return nil
}

func (s *HybridStore) createQuoteRedis(ctx context.Context, q model.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	ok, err := s.redis.SetNX(ctx, quoteKey(q.QuoteID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("store quote %s: %w", q.QuoteID, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", q.QuoteID, ErrQuoteExists)
	}
	return nil
}

// cacheQuote is best effort; Postgres stays authoritative.
func (s *HybridStore) cacheQuote(ctx context.Context, q model.Quote) {
	if err := s.SetJSON(ctx, quoteKey(q.QuoteID), q, s.quoteTTL); err != nil {
		s.logger.Warn("store.redis.cache_quote_failed",
			zap.String("quote_id", q.QuoteID),
			zap.Error(err))
	}
}

// GetQuote reads Redis first and falls back to Postgres, refilling the cache.
func (s *HybridStore) GetQuote(ctx context.Context, quoteID string) (*model.Quote, error) {
	var q model.Quote
	err := s.GetJSON(ctx, quoteKey(quoteID), &q)
	switch {
	case err == nil:
		return &q, nil
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("store.redis.get_quote_failed", zap.String("quote_id", quoteID), zap.Error(err))
	}

	if s.PG == nil {
		return nil, fmt.Errorf("%s: %w", quoteID, ErrQuoteNotFound)
	}

	row := s.PG.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE quote_id = $1`, quoteID)
	rec, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", quoteID, ErrQuoteNotFound)
		}
		return nil, fmt.Errorf("GetQuote scan failed: %w", err)
	}
	s.cacheQuote(ctx, *rec)
	return rec, nil
}

// TransitionQuote moves a quote to next if its current status allows it and
// returns the updated quote. Disallowed moves fail with a
// *model.TransitionError.
func (s *HybridStore) TransitionQuote(ctx context.Context, quoteID string, next model.QuoteStatus) (*model.Quote, error) {
	if s.PG == nil {
		return s.transitionQuoteRedis(ctx, quoteID, next)
	}

	tx, err := s.PG.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE quote_id = $1 FOR UPDATE`, quoteID)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", quoteID, ErrQuoteNotFound)
		}
		return nil, fmt.Errorf("TransitionQuote scan failed: %w", err)
	}

	if q.Status, err = q.Status.Transition(next); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE quotes SET status = $2, updated_at = now() WHERE quote_id = $1`, quoteID, q.Status); err != nil {
		s.logger.Error("store.pg.update_status_failed", zap.String("quote_id", quoteID), zap.Error(err))
		return nil, fmt.Errorf("update quote status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}

	s.cacheQuote(ctx, *q)
	return q, nil
}

// transitionQuoteRedis runs the read-check-write under WATCH so concurrent
// transitions of the same quote cannot both succeed.
func (s *HybridStore) transitionQuoteRedis(ctx context.Context, quoteID string, next model.QuoteStatus) (*model.Quote, error) {
	key := quoteKey(quoteID)
	var out model.Quote

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%s: %w", quoteID, ErrQuoteNotFound)
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return err
		}
		if out.Status, err = out.Status.Transition(next); err != nil {
			return err
		}
		updated, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}

	if err := s.redis.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("quote %s changed concurrently: %w", quoteID, err)
		}
		return nil, err
	}
	return &out, nil
}

// ListExpirable returns up to limit non-terminal quotes created before cutoff,
// oldest first.
func (s *HybridStore) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]model.Quote, error) {
	if s.PG == nil {
		return s.listExpirableRedis(ctx, cutoff, limit)
	}

	rows, err := s.PG.Query(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE status IN ($1, $2, $3) AND created_at < $4
		ORDER BY created_at
		LIMIT $5;
	`, model.QuoteStatusDraft, model.QuoteStatusPreviewed, model.QuoteStatusSent, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *q)
	}
	return results, rows.Err()
}

func (s *HybridStore) listExpirableRedis(ctx context.Context, cutoff time.Time, limit int) ([]model.Quote, error) {
	var results []model.Quote
	iter := s.redis.Scan(ctx, 0, quoteKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		var q model.Quote
		if err := s.GetJSON(ctx, iter.Val(), &q); err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		if !q.Status.Terminal() && q.CreatedAt.Before(cutoff) {
			results = append(results, q)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sortByCreated(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func scanQuote(row pgx.Row) (*model.Quote, error) {
	var q model.Quote
	if err := row.Scan(
		&q.QuoteID,
		&q.Line,
		&q.Currency,
		&q.CustomerName,
		&q.CustomerEmail,
		&q.RequestDetails,
		&q.PremiumBreakdown,
		&q.TotalPremium,
		&q.RiskScore,
		&q.Status,
		&q.CreatedAt,
	); err != nil {
		return nil, err
	}
	q.CreatedAt = q.CreatedAt.UTC()
	return &q, nil
}

func sortByCreated(qs []model.Quote) {
	sort.Slice(qs, func(i, j int) bool { return qs[i].CreatedAt.Before(qs[j].CreatedAt) })
}
