package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmapos/pos-api/internal/domain/catalog"
	"github.com/farmapos/pos-api/internal/domain/sale"
)

const (
	createSaleSQL = `INSERT INTO sales
	(id, items, policy, subtotal, discount_amount, vat, total,
	 star_points_id, star_points_earned, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	decrementStockSQL = `UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	getStockSQL = `SELECT stock FROM products WHERE id = $1`
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL. Line items
// and the discount policy are serialized to JSONB; the totals are stored in
// NUMERIC columns for reporting queries.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create decrements stock for every line and writes the sale row in a single
// transaction. When any line exceeds available stock the transaction rolls
// back with *catalog.InsufficientStockError and no stock moves.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale) error {
	itemsJSON, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("marshaling sale items: %w", err)
	}
	policyJSON, err := json.Marshal(s.Policy)
	if err != nil {
		return fmt.Errorf("marshaling policy: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning checkout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, item := range s.Items {
		tag, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", item.ProductID, err)
		}
		if tag.RowsAffected() > 0 {
			continue
		}

		// No row matched: either the product is unknown or stock is short.
		var available int
		if err := tx.QueryRow(ctx, getStockSQL, item.ProductID).Scan(&available); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return catalog.ErrNotFound
			}
			return fmt.Errorf("checking stock for %q: %w", item.ProductID, err)
		}
		return &catalog.InsufficientStockError{
			ProductID: item.ProductID,
			Requested: item.Quantity,
			Available: available,
		}
	}

	_, err = tx.Exec(ctx, createSaleSQL,
		s.ID, itemsJSON, policyJSON,
		s.Totals.Subtotal, s.Totals.DiscountAmount, s.Totals.VAT, s.Totals.Total,
		s.StarPointsID, s.StarPointsEarned, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating sale %q: %w", s.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sale %q: %w", s.ID, err)
	}
	return nil
}
