package app

import (
	"github.com/shopspring/decimal"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

// CreateOrderRequest carries the input for CreateOrder.
type CreateOrderRequest struct {
	Code    string
	Channel core.Channel
	Lines   []core.OrderLineInput
}

// AllocateRequest carries the input for AllocateOrder.
type AllocateRequest struct {
	OrderID    int
	AssignedTo string
}

// ConfirmPicksRequest carries the input for ConfirmPicks. All tasks must
// belong to the same order; DestUnitID is the container the picked stock
// goes into.
type ConfirmPicksRequest struct {
	TaskIDs    []int
	DestUnitID int
}

// CompleteContainerRequest carries the input for CompleteContainer.
// StagingRef is the staging area the container is parked at.
type CompleteContainerRequest struct {
	JobID         int
	StorageUnitID int
	StagingRef    string
}

// ShortPickRequest carries the input for ReportShortPick. DestUnitID is
// required whenever ActualQuantity is positive.
type ShortPickRequest struct {
	TaskID         int
	ActualQuantity decimal.Decimal
	DestUnitID     int
	Reason         string
	ReportedBy     string
}

// ReceiveStockRequest carries the input for ReceiveStock.
type ReceiveStockRequest struct {
	ProductID     int
	StorageUnitID int
	Quantity      decimal.Decimal
}
