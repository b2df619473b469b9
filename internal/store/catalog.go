package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/trust-insurance/quotation/internal/catalog"
	"github.com/trust-insurance/quotation/pkg/model"
)

var (
	_ catalog.Source = (*HybridStore)(nil)
	_ catalog.Lister = (*HybridStore)(nil)
)

const productColumns = `id, line, name, provider, description, active, base_rates, created_at`

// ActiveProduct returns the newest active product of a line.
func (s *HybridStore) ActiveProduct(ctx context.Context, line model.Line) (model.Product, error) {
	if s.PG == nil {
		return model.Product{}, ErrPostgresUnavailable
	}
	row := s.PG.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE line = $1 AND active
		ORDER BY created_at DESC, id
		LIMIT 1;
	`, line)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, fmt.Errorf("line %s: %w", line, catalog.ErrNoActiveProduct)
		}
		return model.Product{}, fmt.Errorf("ActiveProduct scan failed: %w", err)
	}
	return p, nil
}

// CoverageOptions returns a product's options in catalogue order.
func (s *HybridStore) CoverageOptions(ctx context.Context, productID string) ([]model.CoverageOption, error) {
	if s.PG == nil {
		return nil, ErrPostgresUnavailable
	}
	rows, err := s.PG.Query(ctx, `
		SELECT id, product_id, code, label, description, default_on, load_factor
		FROM coverage_options
		WHERE product_id = $1
		ORDER BY position, id;
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opts []model.CoverageOption
	for rows.Next() {
		var o model.CoverageOption
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Code, &o.Label, &o.Description, &o.DefaultOn, &o.LoadFactor); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

// ListProducts lists products of a line, or all products when line is empty.
func (s *HybridStore) ListProducts(ctx context.Context, line model.Line) ([]model.Product, error) {
	if s.PG == nil {
		return nil, ErrPostgresUnavailable
	}
	rows, err := s.PG.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR line = $1)
		ORDER BY id;
	`, line)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// SeedCatalog upserts every product of seed with its coverage options,
// replacing the options already stored for those products.
func (s *HybridStore) SeedCatalog(ctx context.Context, seed *catalog.Seed) error {
	if s.PG == nil {
		return ErrPostgresUnavailable
	}
	tx, err := s.PG.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, sp := range seed.Products {
		p := sp.Product
		line, _ := model.ParseLine(string(p.Line))
		if _, err := tx.Exec(ctx, `
			INSERT INTO products (id, line, name, provider, description, active, base_rates)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				line = EXCLUDED.line,
				name = EXCLUDED.name,
				provider = EXCLUDED.provider,
				description = EXCLUDED.description,
				active = EXCLUDED.active,
				base_rates = EXCLUDED.base_rates;
		`, p.ID, line, p.Name, p.Provider, p.Description, p.Active, p.BaseRates); err != nil {
			s.logger.Error("store.pg.upsert_product_failed", zap.String("product_id", p.ID), zap.Error(err))
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM coverage_options WHERE product_id = $1`, p.ID); err != nil {
			return err
		}
		for i, o := range sp.CoverageOptions {
			id := o.ID
			if id == "" {
				id = p.ID + "-" + o.Code
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO coverage_options (id, product_id, code, label, description, default_on, load_factor, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
			`, id, p.ID, o.Code, o.Label, o.Description, o.DefaultOn, o.LoadFactor, i); err != nil {
				s.logger.Error("store.pg.insert_option_failed", zap.String("option_id", id), zap.Error(err))
				return err
			}
		}
	}
	return tx.Commit(ctx)
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Line, &p.Name, &p.Provider, &p.Description, &p.Active, &p.BaseRates, &p.CreatedAt)
	return p, err
}
