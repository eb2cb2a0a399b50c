package app

import (
	"context"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

// ApplicationService is the single interface all adapters (Web, CLI) call.
// It decouples presentation from business logic. Implementations must contain
// no display logic of any kind.
type ApplicationService interface {
	// Ping reports whether the database is reachable.
	Ping(ctx context.Context) error

	// CreateOrder creates a new PENDING order with its lines.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// ApproveOrder marks a PENDING order as approved for allocation.
	ApproveOrder(ctx context.Context, orderID int) (*OrderResult, error)

	// CancelOrder transitions a PENDING order to CANCELLED.
	CancelOrder(ctx context.Context, orderID int) (*OrderResult, error)

	// GetOrder returns one order with its lines and picking tasks.
	GetOrder(ctx context.Context, orderID int) (*OrderDetailResult, error)

	// ListOrders returns orders, optionally filtered by status.
	ListOrders(ctx context.Context, status *core.OrderStatus) (*OrderListResult, error)

	// GetDemand returns the order's outstanding demand per product.
	GetDemand(ctx context.Context, orderID int) (*DemandResult, error)

	// PlanAllocation runs the greedy allocator without committing anything.
	PlanAllocation(ctx context.Context, orderID int) (*core.AllocationPlan, error)

	// AllocateOrder plans and commits in one call, retrying the pair a
	// bounded number of times when concurrent commits consume the planned
	// stock. The order must be approved.
	AllocateOrder(ctx context.Context, req AllocateRequest) (*AllocateResult, error)

	// DeallocateOrder rolls an ALLOCATED order back to PENDING, releasing
	// every reservation its tasks hold.
	DeallocateOrder(ctx context.Context, orderID int) error

	// ConfirmPicks confirms completed tasks into a destination container.
	// When the confirmation completes the order, the shipment is finalized
	// in the same call.
	ConfirmPicks(ctx context.Context, req ConfirmPicksRequest) (*PickResult, error)

	// CompleteContainer confirms every pending task of a job that sources
	// from one storage unit, shipping the container as-is.
	CompleteContainer(ctx context.Context, req CompleteContainerRequest) (*PickResult, error)

	// ReportShortPick confirms a task below its requested quantity and
	// opens an exception for the shortfall.
	ReportShortPick(ctx context.Context, req ShortPickRequest) (*ShortPickResult, error)

	// ResolveException applies the human decision on an open exception.
	ResolveException(ctx context.Context, exceptionID int, resolution core.ExceptionResolution) (*core.Exception, error)

	// ListOpenExceptions returns all exceptions awaiting a decision.
	ListOpenExceptions(ctx context.Context) ([]core.Exception, error)

	// FinalizeShipment converts a COMPLETED order into a shipment.
	// Idempotent: repeating it on a SHIPPED order returns the shipment.
	FinalizeShipment(ctx context.Context, orderID int) (*core.Shipment, error)

	// GetShipment returns the shipment of a shipped order.
	GetShipment(ctx context.Context, orderID int) (*core.Shipment, error)

	// ReceiveStock books inbound stock into a storage unit.
	ReceiveStock(ctx context.Context, req ReceiveStockRequest) error

	// GetStockLevels returns current per-bin stock, optionally scoped to a
	// channel pool.
	GetStockLevels(ctx context.Context, pool *core.Channel) (*StockResult, error)

	// GetLedger returns the newest movement ledger entries for a product.
	GetLedger(ctx context.Context, productID, limit int) ([]core.LedgerEntry, error)
}
