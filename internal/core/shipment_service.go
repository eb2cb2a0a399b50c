package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// pgUniqueViolation is the Postgres error code for unique constraint hits.
const pgUniqueViolation = "23505"

// ShipmentService converts a fully picked order into an immutable shipment
// record.
type ShipmentService struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewShipmentService(pool *pgxpool.Pool, log *zap.Logger) *ShipmentService {
	return &ShipmentService{pool: pool, log: log}
}

// newShipmentCode derives a human-readable code from a fresh UUID.
func newShipmentCode() string {
	return "SHP-" + strings.ToUpper(uuid.NewString()[:8])
}

// Finalize ships a COMPLETED order in one transaction: a Shipment row is
// created, every inventory record still inside the order's containers gets
// a SHIP ledger entry and is removed, the containers are marked SHIPPED
// with their location cleared, and the order transitions to SHIPPED.
//
// Idempotent: finalizing an already-SHIPPED order returns the existing
// Shipment instead of creating a duplicate, enforced by the unique
// order → shipment mapping.
func (s *ShipmentService) Finalize(ctx context.Context, orderID int) (*Shipment, error) {
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

	if status == OrderShipped {
		shipment, err := s.getByOrder(ctx, tx, orderID)
		if err != nil {
			return nil, err
		}
		return shipment, nil
	}
	if err := checkTransition(orderID, status, OrderShipped); err != nil {
		return nil, err
	}

	containers, err := s.lockContainers(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	type shipRecord struct {
		productID int
		unitID    int
		quantity  decimal.Decimal
		allocated decimal.Decimal
	}
	var records []shipRecord
	if len(containers) > 0 {
		rows, err := tx.Query(ctx, `
			SELECT product_id, storage_unit_id, quantity, allocated_quantity
			FROM inventory_records
			WHERE storage_unit_id = ANY($1)
			ORDER BY product_id, storage_unit_id
			FOR UPDATE
		`, containers)
		if err != nil {
			return nil, fmt.Errorf("failed to lock container records for order %d: %w", orderID, err)
		}
		for rows.Next() {
			var r shipRecord
			if err := rows.Scan(&r.productID, &r.unitID, &r.quantity, &r.allocated); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan container record: %w", err)
			}
			records = append(records, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating container records: %w", err)
		}
		// A shipped record must carry no live reservation; shipping it would
		// silently destroy another order's allocation.
		for _, r := range records {
			if r.allocated.IsPositive() {
				return nil, fmt.Errorf("record (%d, %d) still has %s allocated: %w",
					r.productID, r.unitID, r.allocated.String(), ErrStockConflict)
			}
		}
	}

	shipment, err := s.insertShipment(ctx, tx, orderID, len(records), len(containers))
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		unitID := r.unitID
		if err := appendLedgerEntry(ctx, tx, LedgerShip, r.productID, r.quantity.Neg(), &unitID, nil, &orderID); err != nil {
			return nil, err
		}
	}
	if len(containers) > 0 {
		_, err = tx.Exec(ctx, "DELETE FROM inventory_records WHERE storage_unit_id = ANY($1)", containers)
		if err != nil {
			return nil, fmt.Errorf("failed to clear shipped records for order %d: %w", orderID, err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE storage_units SET status = $1, location_ref = NULL WHERE id = ANY($2)
		`, UnitStatusShipped, containers)
		if err != nil {
			return nil, fmt.Errorf("failed to mark containers shipped for order %d: %w", orderID, err)
		}
	}

	_, err = tx.Exec(ctx, "UPDATE orders SET status = $1, shipped_at = NOW() WHERE id = $2", OrderShipped, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to transition order %d to SHIPPED: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shipment for order %d: %w", orderID, err)
	}

	s.log.Info("shipment finalized",
		zap.Int("order_id", orderID),
		zap.String("code", shipment.Code),
		zap.Int("items", shipment.ItemCount),
		zap.Int("containers", shipment.ContainerCount))
	return shipment, nil
}

// GetByOrder returns the shipment of an order, or ErrNotFound.
func (s *ShipmentService) GetByOrder(ctx context.Context, orderID int) (*Shipment, error) {
	return s.getByOrder(ctx, s.pool, orderID)
}

func (s *ShipmentService) getByOrder(ctx context.Context, q pgxQuerier, orderID int) (*Shipment, error) {
	var sh Shipment
	err := q.QueryRow(ctx, `
		SELECT id, order_id, code, item_count, container_count, created_at
		FROM shipments WHERE order_id = $1
	`, orderID).Scan(&sh.ID, &sh.OrderID, &sh.Code, &sh.ItemCount, &sh.ContainerCount, &sh.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shipment for order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch shipment for order %d: %w", orderID, err)
	}
	return &sh, nil
}

// lockContainers returns the ids of the order's unshipped containers,
// locked for the duration of the transaction.
func (s *ShipmentService) lockContainers(ctx context.Context, tx pgx.Tx, orderID int) ([]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT id FROM storage_units
		WHERE assigned_order_id = $1 AND status <> $2
		ORDER BY id
		FOR UPDATE
	`, orderID, UnitStatusShipped)
	if err != nil {
		return nil, fmt.Errorf("failed to lock containers for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan container id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating container ids: %w", err)
	}
	return ids, nil
}

// insertShipment creates the shipment row, retrying once with a fresh code
// when the generated code collides. Codes are UUID-derived, so a second
// collision means something is genuinely broken and the duplicate error is
// surfaced to the caller.
func (s *ShipmentService) insertShipment(ctx context.Context, tx pgx.Tx, orderID, itemCount, containerCount int) (*Shipment, error) {
	for attempt := 0; attempt < 2; attempt++ {
		code := newShipmentCode()

		// Nested transaction (savepoint): a unique violation must not poison
		// the outer transaction before the retry.
		sp, err := tx.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open savepoint: %w", err)
		}

		var sh Shipment
		err = sp.QueryRow(ctx, `
			INSERT INTO shipments (order_id, code, item_count, container_count)
			VALUES ($1, $2, $3, $4)
			RETURNING id, order_id, code, item_count, container_count, created_at
		`, orderID, code, itemCount, containerCount).
			Scan(&sh.ID, &sh.OrderID, &sh.Code, &sh.ItemCount, &sh.ContainerCount, &sh.CreatedAt)
		if err == nil {
			if err := sp.Commit(ctx); err != nil {
				return nil, fmt.Errorf("failed to release savepoint: %w", err)
			}
			return &sh, nil
		}
		_ = sp.Rollback(ctx)

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "code") && attempt == 0 {
				s.log.Warn("shipment code collision, regenerating",
					zap.Int("order_id", orderID), zap.String("code", code))
				continue
			}
			return nil, fmt.Errorf("shipment for order %d: %w", orderID, ErrDuplicateCode)
		}
		return nil, fmt.Errorf("failed to insert shipment for order %d: %w", orderID, err)
	}
	return nil, fmt.Errorf("shipment code generation for order %d: %w", orderID, ErrDuplicateCode)
}
