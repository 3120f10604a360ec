package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/farmapos/pos-api/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, category, dosage_amount, dosage_unit, price, stock, requires_prescription, sku_kind
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, category, dosage_amount, dosage_unit, price, stock, requires_prescription, sku_kind
		FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products
		(id, name, category, dosage_amount, dosage_unit, price, stock, requires_prescription, sku_kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			dosage_amount = EXCLUDED.dosage_amount,
			dosage_unit = EXCLUDED.dosage_unit,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			requires_prescription = EXCLUDED.requires_prescription,
			sku_kind = EXCLUDED.sku_kind`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Upsert inserts or replaces a catalog entry. Used by the seed tool.
func (r *ProductRepository) Upsert(ctx context.Context, p catalog.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Category, p.DosageAmount, p.DosageUnit,
		p.Price, p.Stock, p.RequiresPrescription, string(p.SKUKind),
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p            catalog.Product
		dosageAmount decimal.Decimal
		price        decimal.Decimal
		skuKind      string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Category, &dosageAmount, &p.DosageUnit,
		&price, &p.Stock, &p.RequiresPrescription, &skuKind,
	)
	p.DosageAmount = dosageAmount
	p.Price = price
	p.SKUKind = catalog.SKUKind(skuKind)
	return p, err
}
