package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// appendLedgerEntry writes one audit row inside the caller's transaction.
// The ledger is append-only: nothing in this repository updates or deletes
// ledger_entries, so a committed transaction's audit trail is permanent.
func appendLedgerEntry(ctx context.Context, tx pgx.Tx, entryType LedgerEntryType,
	productID int, qty decimal.Decimal, sourceUnitID, destUnitID, orderID *int) error {

	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (entry_type, product_id, quantity, source_unit_id, dest_unit_id, order_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entryType, productID, qty, sourceUnitID, destUnitID, orderID)
	if err != nil {
		return fmt.Errorf("failed to append %s ledger entry for product %d: %w", entryType, productID, err)
	}
	return nil
}
