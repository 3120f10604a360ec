package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/farmapos/pos-api/internal/domain/cart"
	"github.com/farmapos/pos-api/internal/domain/hold"
	"github.com/farmapos/pos-api/internal/domain/pricing"
)

const (
	insertHoldSQL = `INSERT INTO held_transactions
		(id, items, policy, total, prescription_required, prescription_verified,
		 customer_id, customer_name, star_points_id, note, held_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	listHoldsSQL = `SELECT id, items, policy, total, prescription_required, prescription_verified,
		customer_id, customer_name, star_points_id, note, held_at
		FROM held_transactions ORDER BY held_at, id`

	removeHoldSQL = `DELETE FROM held_transactions WHERE id = $1
		RETURNING id, items, policy, total, prescription_required, prescription_verified,
		customer_id, customer_name, star_points_id, note, held_at`

	clearHoldsSQL = `DELETE FROM held_transactions`
)

var _ hold.Repository = (*HoldRepository)(nil)

// HoldRepository implements hold.Repository backed by PostgreSQL. Items and
// the discount policy are stored as JSONB.
type HoldRepository struct {
	pool *pgxpool.Pool
}

// NewHoldRepository returns a HoldRepository that uses the given pool.
func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

// Insert persists a held transaction.
func (r *HoldRepository) Insert(ctx context.Context, ht *hold.HeldTransaction) error {
	itemsJSON, err := json.Marshal(ht.Items)
	if err != nil {
		return fmt.Errorf("marshaling held items: %w", err)
	}
	policyJSON, err := json.Marshal(ht.Policy)
	if err != nil {
		return fmt.Errorf("marshaling policy: %w", err)
	}

	_, err = r.pool.Exec(ctx, insertHoldSQL,
		ht.ID, itemsJSON, policyJSON, ht.Total,
		ht.PrescriptionRequired, ht.PrescriptionVerified,
		ht.CustomerID, ht.CustomerName, ht.StarPointsID, ht.Note, ht.HeldAt,
	)
	if err != nil {
		return fmt.Errorf("inserting held transaction %q: %w", ht.ID, err)
	}
	return nil
}

// List returns all held transactions in hold order. Rows whose stored items
// no longer decode are logged and skipped rather than failing the whole
// listing; held transactions are a convenience, not a ledger.
func (r *HoldRepository) List(ctx context.Context) ([]hold.HeldTransaction, error) {
	rows, err := r.pool.Query(ctx, listHoldsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing held transactions: %w", err)
	}
	defer rows.Close()

	var out []hold.HeldTransaction
	for rows.Next() {
		ht, err := scanHold(rows)
		if err != nil {
			zctx.From(ctx).Warn("Skipping undecodable held transaction", zap.Error(err))
			continue
		}
		out = append(out, ht)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing held transactions: %w", err)
	}
	return out, nil
}

// Remove atomically deletes and returns the held transaction for id.
func (r *HoldRepository) Remove(ctx context.Context, id string) (*hold.HeldTransaction, error) {
	rows, err := r.pool.Query(ctx, removeHoldSQL, id)
	if err != nil {
		return nil, fmt.Errorf("removing held transaction %q: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("removing held transaction %q: %w", id, err)
		}
		return nil, hold.ErrNotFound
	}

	ht, err := scanHold(rows)
	if err != nil {
		return nil, fmt.Errorf("decoding held transaction %q: %w", id, err)
	}
	return &ht, nil
}

// Clear wipes the held transaction list.
func (r *HoldRepository) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, clearHoldsSQL); err != nil {
		return fmt.Errorf("clearing held transactions: %w", err)
	}
	return nil
}

func scanHold(rows pgx.Rows) (hold.HeldTransaction, error) {
	var (
		ht         hold.HeldTransaction
		itemsJSON  []byte
		policyJSON []byte
	)
	err := rows.Scan(
		&ht.ID, &itemsJSON, &policyJSON, &ht.Total,
		&ht.PrescriptionRequired, &ht.PrescriptionVerified,
		&ht.CustomerID, &ht.CustomerName, &ht.StarPointsID, &ht.Note, &ht.HeldAt,
	)
	if err != nil {
		return hold.HeldTransaction{}, err
	}

	var items []cart.LineItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return hold.HeldTransaction{}, errors.Wrap(err, "decode items")
	}
	ht.Items = items

	var policy pricing.Policy
	if err := json.Unmarshal(policyJSON, &policy); err != nil {
		return hold.HeldTransaction{}, errors.Wrap(err, "decode policy")
	}
	ht.Policy = policy

	return ht, nil
}
