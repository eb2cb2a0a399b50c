package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord tracks on-hand stock of one product in one storage unit.
// AllocatedQuantity is the soft reservation: stock earmarked for an order
// but not yet physically moved. 0 ≤ AllocatedQuantity ≤ Quantity holds at
// all times; every mutation re-checks it under a row lock.
type InventoryRecord struct {
	ProductID         int             `json:"product_id"`
	StorageUnitID     int             `json:"storage_unit_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	AllocatedQuantity decimal.Decimal `json:"allocated_quantity"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Available is the quantity an allocator may still claim.
func (r InventoryRecord) Available() decimal.Decimal {
	return r.Quantity.Sub(r.AllocatedQuantity)
}

// StockLevel is a read view of an inventory record joined with product and
// storage unit info.
type StockLevel struct {
	SKU             string          `json:"sku"`
	ProductID       int             `json:"product_id"`
	StorageUnitCode string          `json:"storage_unit_code"`
	StorageUnitID   int             `json:"storage_unit_id"`
	Pool            Channel         `json:"pool"`
	OnHand          decimal.Decimal `json:"on_hand"`
	Allocated       decimal.Decimal `json:"allocated"`
	Available       decimal.Decimal `json:"available"` // = OnHand - Allocated
}

// LedgerEntryType classifies stock movements in the audit trail.
type LedgerEntryType string

const (
	LedgerReceipt  LedgerEntryType = "RECEIPT"  // inbound goods receipt
	LedgerAllocate LedgerEntryType = "ALLOCATE" // soft reservation created
	LedgerRelease  LedgerEntryType = "RELEASE"  // soft reservation reversed
	LedgerMove     LedgerEntryType = "MOVE"     // pick-confirm stock movement
	LedgerShip     LedgerEntryType = "SHIP"     // stock left the warehouse
	LedgerAdjust   LedgerEntryType = "ADJUST"   // manual correction
)

// LedgerEntry is one append-only audit record. Every stock mutation writes
// exactly one; rows are never updated or deleted.
type LedgerEntry struct {
	ID           int             `json:"id"`
	EntryType    LedgerEntryType `json:"entry_type"`
	ProductID    int             `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"` // signed delta
	SourceUnitID *int            `json:"source_unit_id,omitempty"`
	DestUnitID   *int            `json:"dest_unit_id,omitempty"`
	OrderID      *int            `json:"order_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
