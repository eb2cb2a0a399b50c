package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderLineInput is one product position on a new order. Lines for the same
// product are allowed; demand resolution sums them.
type OrderLineInput struct {
	ProductID int
	Quantity  decimal.Decimal
}

// OrderService manages order intake and the transitions that do not involve
// stock: approval and cancellation.
type OrderService struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewOrderService(pool *pgxpool.Pool, log *zap.Logger) *OrderService {
	return &OrderService{pool: pool, log: log}
}

// CreateOrder creates a PENDING, unapproved order with its lines.
func (s *OrderService) CreateOrder(ctx context.Context, code string, channel Channel, lines []OrderLineInput) (*Order, error) {
	if code == "" {
		return nil, validationErr("code", "must not be empty")
	}
	if !channel.Valid() {
		return nil, validationErr("channel", "must be piece or bulk")
	}
	if len(lines) == 0 {
		return nil, validationErr("lines", "order must have at least one line")
	}
	for i, l := range lines {
		if l.ProductID <= 0 {
			return nil, validationErr("lines", fmt.Sprintf("line %d: missing product", i+1))
		}
		if !l.Quantity.IsPositive() {
			return nil, validationErr("lines", fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (code, channel) VALUES ($1, $2) RETURNING id
	`, code, channel).Scan(&orderID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("order code %s: %w", code, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for i, l := range lines {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT TRUE FROM products WHERE id = $1", l.ProductID).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("line %d: product %d: %w", i+1, l.ProductID, ErrNotFound)
			}
			return nil, fmt.Errorf("line %d: failed to fetch product: %w", i+1, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, product_id, quantity_ordered)
			VALUES ($1, $2, $3)
		`, orderID, l.ProductID, l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	s.log.Info("order created", zap.Int("order_id", orderID), zap.String("code", code), zap.String("channel", string(channel)))
	return s.GetOrder(ctx, orderID)
}

// ApproveOrder sets the approval flag required before an allocation can be
// committed. Approving a non-PENDING order is rejected.
func (s *OrderService) ApproveOrder(ctx context.Context, orderID int) (*Order, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET approved = TRUE WHERE id = $1 AND status = $2
	`, orderID, OrderPending)
	if err != nil {
		return nil, fmt.Errorf("failed to approve order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish missing from mis-stated.
		var status OrderStatus
		err := s.pool.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1", orderID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
		}
		return nil, fmt.Errorf("order %d: approve in status %s: %w", orderID, status, ErrInvalidStateTransition)
	}
	return s.GetOrder(ctx, orderID)
}

// CancelOrder transitions a PENDING order to CANCELLED. Allocated orders
// must be deallocated first.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	err = tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	if err := checkTransition(orderID, status, OrderCancelled); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, "UPDATE orders SET status = $1 WHERE id = $2", OrderCancelled, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order cancellation: %w", err)
	}

	s.log.Info("order cancelled", zap.Int("order_id", orderID))
	return s.GetOrder(ctx, orderID)
}

// GetOrder returns an order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, orderID int) (*Order, error) {
	var o Order
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, status, approved, channel, created_at, shipped_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&o.ID, &o.Code, &o.Status, &o.Approved, &o.Channel, &o.CreatedAt, &o.ShippedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, product_id, quantity_ordered, quantity_picked, quantity_waived
		FROM order_lines WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for order %d: %w", orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.QuantityOrdered, &l.QuantityPicked, &l.QuantityWaived); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}
	return &o, nil
}

// ListOrders returns orders newest first, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, status *OrderStatus) ([]Order, error) {
	query := `
		SELECT id, code, status, approved, channel, created_at, shipped_at
		FROM orders
	`
	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		rows, err = s.pool.Query(ctx, query+" WHERE status = $1 ORDER BY id DESC", *status)
	} else {
		rows, err = s.pool.Query(ctx, query+" ORDER BY id DESC")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Code, &o.Status, &o.Approved, &o.Channel, &o.CreatedAt, &o.ShippedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// ListTasks returns the picking tasks of an order across all of its jobs.
func (s *OrderService) ListTasks(ctx context.Context, orderID int) ([]PickingTask, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pt.id, pt.job_id, pt.product_id, pt.storage_unit_id, pt.quantity, pt.status
		FROM picking_tasks pt
		JOIN picking_jobs pj ON pj.id = pt.job_id
		WHERE pj.order_id = $1
		ORDER BY pt.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks for order %d: %w", orderID, err)
	}
	return scanTasks(rows)
}
