package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DemandService computes the outstanding per-product need of an order.
type DemandService struct {
	pool *pgxpool.Pool
}

func NewDemandService(pool *pgxpool.Pool) *DemandService {
	return &DemandService{pool: pool}
}

// OutstandingDemand returns product_id → needed for every product the order
// still owes, where needed = ordered − picked − waived. Lines are summed per
// product, so duplicated lines cannot inflate demand. An empty map is not an
// error: it means the order is fully satisfied.
func (s *DemandService) OutstandingDemand(ctx context.Context, orderID int) (map[int]decimal.Decimal, error) {
	return s.outstandingDemand(ctx, s.pool, orderID)
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *DemandService) outstandingDemand(ctx context.Context, q pgxQuerier, orderID int) (map[int]decimal.Decimal, error) {
	var exists bool
	if err := q.QueryRow(ctx, "SELECT TRUE FROM orders WHERE id = $1", orderID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	rows, err := q.Query(ctx, `
		SELECT product_id,
		       SUM(quantity_ordered) - SUM(quantity_picked) - SUM(quantity_waived)
		FROM order_lines
		WHERE order_id = $1
		GROUP BY product_id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines for order %d: %w", orderID, err)
	}
	defer rows.Close()

	demand := make(map[int]decimal.Decimal)
	for rows.Next() {
		var productID int
		var needed decimal.Decimal
		if err := rows.Scan(&productID, &needed); err != nil {
			return nil, fmt.Errorf("failed to scan demand row: %w", err)
		}
		if needed.IsPositive() {
			demand[productID] = needed
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating demand rows: %w", err)
	}
	return demand, nil
}
