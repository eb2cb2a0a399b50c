package app

import (
	"github.com/shopspring/decimal"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Order *core.Order
}

// OrderDetailResult is returned by GetOrder.
type OrderDetailResult struct {
	Order *core.Order
	Tasks []core.PickingTask
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders []core.Order
}

// DemandResult is returned by GetDemand.
type DemandResult struct {
	OrderID int
	Demand  map[int]decimal.Decimal
}

// AllocateResult is returned by AllocateOrder.
type AllocateResult struct {
	Job      *core.PickingJob
	Tasks    []core.PickingTask
	Shortage map[int]decimal.Decimal
	// Retries counts how many plan/commit rounds were lost to concurrent
	// commits before this one landed.
	Retries int
}

// PickResult is returned by ConfirmPicks and CompleteContainer. Shipment is
// set when the confirmation completed the order and it was finalized.
type PickResult struct {
	OrderID        int
	ConfirmedTasks int
	OrderCompleted bool
	Shipment       *core.Shipment
}

// ShortPickResult is returned by ReportShortPick.
type ShortPickResult struct {
	Exception      core.Exception
	OrderID        int
	OrderCompleted bool
	Shipment       *core.Shipment
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	Levels []core.StockLevel
}
