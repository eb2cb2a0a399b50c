package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel selects one of the two mutually exclusive inventory pools
// ("piece" for retail, "bulk" for wholesale). An order belongs to exactly
// one pool and its allocation never crosses into the other.
type Channel string

const (
	ChannelPiece Channel = "piece"
	ChannelBulk  Channel = "bulk"
)

func (c Channel) Valid() bool {
	return c == ChannelPiece || c == ChannelBulk
}

// Product is a sellable SKU.
type Product struct {
	ID        int       `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type StorageUnitKind string

const (
	UnitKindBox      StorageUnitKind = "BOX"
	UnitKindLocation StorageUnitKind = "LOCATION"
)

type StorageUnitStatus string

const (
	UnitStatusActive  StorageUnitStatus = "ACTIVE"
	UnitStatusStaged  StorageUnitStatus = "STAGED"
	UnitStatusShipped StorageUnitStatus = "SHIPPED"
)

// StorageUnit is a box, pallet, or shelf location holding physical stock.
// AssignedOrderID binds a destination container to the first order picked
// into it; picks for any other order are rejected until the container ships.
type StorageUnit struct {
	ID              int               `json:"id"`
	Code            string            `json:"code"`
	Kind            StorageUnitKind   `json:"kind"`
	Pool            Channel           `json:"pool"`
	LocationRef     *string           `json:"location_ref,omitempty"`
	Status          StorageUnitStatus `json:"status"`
	AssignedOrderID *int              `json:"assigned_order_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderAllocated OrderStatus = "ALLOCATED"
	OrderPicking   OrderStatus = "PICKING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Order is an outbound customer order.
type Order struct {
	ID        int         `json:"id"`
	Code      string      `json:"code"`
	Status    OrderStatus `json:"status"`
	Approved  bool        `json:"approved"`
	Channel   Channel     `json:"channel"`
	CreatedAt time.Time   `json:"created_at"`
	ShippedAt *time.Time  `json:"shipped_at,omitempty"`
	Lines     []OrderLine `json:"lines,omitempty"`
}

// OrderLine is one product position on an order. QuantityWaived holds
// shortfall that an approved write-off exception has permanently excused;
// outstanding demand is ordered − picked − waived.
type OrderLine struct {
	ID              int             `json:"id"`
	OrderID         int             `json:"order_id"`
	ProductID       int             `json:"product_id"`
	QuantityOrdered decimal.Decimal `json:"quantity_ordered"`
	QuantityPicked  decimal.Decimal `json:"quantity_picked"`
	QuantityWaived  decimal.Decimal `json:"quantity_waived"`
}
