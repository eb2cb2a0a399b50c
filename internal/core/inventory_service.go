package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService handles inbound receipts and stock level queries. The
// allocation and picking mutations live in PickingService; this service
// covers how stock enters the warehouse and how it is observed.
type InventoryService struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewInventoryService(pool *pgxpool.Pool, log *zap.Logger) *InventoryService {
	return &InventoryService{pool: pool, log: log}
}

// ReceiveStock records an inbound goods receipt: the (product, unit) record
// is created or incremented and a RECEIPT ledger entry is appended, in one
// transaction.
func (s *InventoryService) ReceiveStock(ctx context.Context, productID, unitID int, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return validationErr("quantity", "must be positive")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var unitStatus StorageUnitStatus
	err = tx.QueryRow(ctx, "SELECT status FROM storage_units WHERE id = $1 FOR UPDATE", unitID).Scan(&unitStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("storage unit %d: %w", unitID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock storage unit %d: %w", unitID, err)
	}
	if unitStatus == UnitStatusShipped {
		return fmt.Errorf("storage unit %d already shipped: %w", unitID, ErrInvalidStateTransition)
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT TRUE FROM products WHERE id = $1", productID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO inventory_records (product_id, storage_unit_id, quantity, allocated_quantity)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (product_id, storage_unit_id)
		DO UPDATE SET quantity = inventory_records.quantity + $3, updated_at = NOW()
	`, productID, unitID, qty)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory record (%d, %d): %w", productID, unitID, err)
	}

	destID := unitID
	if err := appendLedgerEntry(ctx, tx, LedgerReceipt, productID, qty, nil, &destID, nil); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stock receipt: %w", err)
	}

	s.log.Info("stock received",
		zap.Int("product_id", productID),
		zap.Int("unit_id", unitID),
		zap.String("quantity", qty.String()))
	return nil
}

// StockLevels returns on-hand/allocated/available per (product, unit),
// optionally restricted to one channel pool.
func (s *InventoryService) StockLevels(ctx context.Context, pool *Channel) ([]StockLevel, error) {
	query := `
		SELECT p.sku, ir.product_id, su.code, ir.storage_unit_id, su.pool,
		       ir.quantity, ir.allocated_quantity,
		       ir.quantity - ir.allocated_quantity
		FROM inventory_records ir
		JOIN products p ON p.id = ir.product_id
		JOIN storage_units su ON su.id = ir.storage_unit_id
	`
	var (
		rows pgx.Rows
		err  error
	)
	if pool != nil {
		rows, err = s.pool.Query(ctx, query+" WHERE su.pool = $1 ORDER BY p.sku, su.code", *pool)
	} else {
		rows, err = s.pool.Query(ctx, query+" ORDER BY p.sku, su.code")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(&sl.SKU, &sl.ProductID, &sl.StorageUnitCode, &sl.StorageUnitID, &sl.Pool,
			&sl.OnHand, &sl.Allocated, &sl.Available); err != nil {
			return nil, fmt.Errorf("failed to scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock levels: %w", err)
	}
	return levels, nil
}

// LedgerEntries returns the audit trail for one product, newest first.
func (s *InventoryService) LedgerEntries(ctx context.Context, productID int, limit int) ([]LedgerEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, entry_type, product_id, quantity, source_unit_id, dest_unit_id, order_id, created_at
		FROM ledger_entries
		WHERE product_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.EntryType, &e.ProductID, &e.Quantity,
			&e.SourceUnitID, &e.DestUnitID, &e.OrderID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}
