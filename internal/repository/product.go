package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/trademill/wholesale-api/internal/domain/pricing"
	"github.com/trademill/wholesale-api/internal/domain/product"
)

const (
	productColumns = `id, sku, name, category, base_price, sale_price, sale_active,
		offers, units_per_pack, packs_per_pallet, stock_base_units`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	decrementStockSQL = `UPDATE products SET stock_base_units = stock_base_units - $2
		WHERE id = $1 AND stock_base_units >= $2`

	restoreStockSQL = `UPDATE products SET stock_base_units = stock_base_units + $2 WHERE id = $1`

	upsertPriceSQL = `UPDATE products SET base_price = $2 WHERE sku = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
// Offers are stored as a JSONB array in the persisted (legacy-tolerant)
// schema and normalized through the pricing codec on read.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// DecrementStock conditionally reduces a product's stock. The WHERE clause
// makes the decrement atomic under concurrent orders; zero affected rows
// means the stock guard rejected it.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, baseUnits int64) error {
	tag, err := r.pool.Exec(ctx, decrementStockSQL, id, baseUnits)
	if err != nil {
		return fmt.Errorf("decrementing stock for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

// RestoreStock hands back base units claimed by an order that could not be
// completed.
func (r *ProductRepository) RestoreStock(ctx context.Context, id string, baseUnits int64) error {
	if _, err := r.pool.Exec(ctx, restoreStockSQL, id, baseUnits); err != nil {
		return fmt.Errorf("restoring stock for %q: %w", id, err)
	}
	return nil
}

// UpsertPrice updates the base price for a SKU. It reports false when the
// SKU is not in the catalog.
func (r *ProductRepository) UpsertPrice(ctx context.Context, sku string, price decimal.Decimal) (bool, error) {
	tag, err := r.pool.Exec(ctx, upsertPriceSQL, sku, price)
	if err != nil {
		return false, fmt.Errorf("updating price for sku %q: %w", sku, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p          product.Product
		salePrice  *decimal.Decimal
		saleActive bool
		offersJSON []byte
	)
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.BasePrice, &salePrice, &saleActive,
		&offersJSON, &p.Pack.UnitsPerPack, &p.Pack.PacksPerPallet, &p.StockBaseUnits,
	)
	if err != nil {
		return product.Product{}, err
	}

	if salePrice != nil {
		p.Sale = &pricing.SalePrice{Price: *salePrice, Active: saleActive}
	}

	offers, err := pricing.DecodeOffers(offersJSON)
	if err != nil {
		return product.Product{}, fmt.Errorf("decoding offers for %q: %w", p.ID, err)
	}
	p.Offers = offers

	return p, nil
}
