package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Audits the stock invariants the services are supposed to preserve:
// reservation bounds on every inventory record, and conservation between
// record quantities and the movement ledger per product.
func main() {
	_ = godotenv.Load()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("[CONNECT] DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatalf("[CONNECT] failed to create pool: %v", err)
	}
	defer pool.Close()

	violations := 0
	violations += checkReservationBounds(ctx, pool)
	violations += checkLedgerConservation(ctx, pool)

	if violations > 0 {
		log.Fatalf("[DONE] %d invariant violation(s) found", violations)
	}
	log.Println("[DONE] all stock invariants hold")
}

// checkReservationBounds flags records where the soft reservation escapes
// 0 <= allocated <= quantity.
func checkReservationBounds(ctx context.Context, pool *pgxpool.Pool) int {
	rows, err := pool.Query(ctx, `
		SELECT id, product_id, storage_unit_id, quantity, allocated_quantity
		FROM inventory_records
		WHERE allocated_quantity < 0 OR allocated_quantity > quantity OR quantity < 0
	`)
	if err != nil {
		log.Fatalf("[BOUNDS] query failed: %v", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id, productID, unitID int
		var qty, allocated decimal.Decimal
		if err := rows.Scan(&id, &productID, &unitID, &qty, &allocated); err != nil {
			log.Fatalf("[BOUNDS] scan failed: %v", err)
		}
		log.Printf("[BOUNDS] record %d (product %d, unit %d): quantity=%s allocated=%s",
			id, productID, unitID, qty, allocated)
		count++
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[BOUNDS] iteration failed: %v", err)
	}
	if count == 0 {
		log.Println("[BOUNDS] ok")
	}
	return count
}

// checkLedgerConservation verifies per product that the on-hand-affecting
// ledger deltas sum to the quantity currently on the records. RECEIPT, SHIP
// and ADJUST change on-hand stock; ALLOCATE and RELEASE touch only the
// reservation and MOVE is net zero, so those are excluded from the sum.
// Every mutation writes its ledger entry in the same transaction, so any
// drift means a bug.
func checkLedgerConservation(ctx context.Context, pool *pgxpool.Pool) int {
	rows, err := pool.Query(ctx, `
		SELECT p.id,
		       COALESCE((SELECT SUM(quantity) FROM ledger_entries
		                 WHERE product_id = p.id
		                   AND entry_type IN ('RECEIPT', 'SHIP', 'ADJUST')), 0),
		       COALESCE((SELECT SUM(quantity) FROM inventory_records WHERE product_id = p.id), 0)
		FROM products p
	`)
	if err != nil {
		log.Fatalf("[LEDGER] query failed: %v", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var productID int
		var ledgerSum, recordSum decimal.Decimal
		if err := rows.Scan(&productID, &ledgerSum, &recordSum); err != nil {
			log.Fatalf("[LEDGER] scan failed: %v", err)
		}
		if !ledgerSum.Equal(recordSum) {
			log.Printf("[LEDGER] product %d: ledger sum %s != on-record %s",
				productID, ledgerSum, recordSum)
			count++
		}
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[LEDGER] iteration failed: %v", err)
	}
	if count == 0 {
		log.Println("[LEDGER] ok")
	}
	return count
}
