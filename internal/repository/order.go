package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trademill/wholesale-api/internal/domain/order"
)

const createOrderSQL = `INSERT INTO orders (id, lines, subtotal, discounts, total, free_shipping)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The priced lines are serialized to JSON for
// storage in the JSONB column, and the database-assigned creation timestamp
// is read back into the order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}

	err = r.pool.QueryRow(ctx, createOrderSQL,
		o.ID, linesJSON, o.Subtotal, o.Discounts, o.Total, o.FreeShipping,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}
