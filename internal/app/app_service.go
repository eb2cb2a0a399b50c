package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/monitoring"
)

// maxAllocateRetries bounds the plan/commit rounds AllocateOrder is willing
// to lose to concurrent commits before giving up with ErrStockConflict.
const maxAllocateRetries = 3

type appService struct {
	pool       *pgxpool.Pool
	orders     *core.OrderService
	demand     *core.DemandService
	allocator  *core.AllocationService
	picking    *core.PickingService
	shipments  *core.ShipmentService
	exceptions *core.ExceptionService
	inventory  *core.InventoryService
	metrics    *monitoring.Metrics
	log        *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	orders *core.OrderService,
	demand *core.DemandService,
	allocator *core.AllocationService,
	picking *core.PickingService,
	shipments *core.ShipmentService,
	exceptions *core.ExceptionService,
	inventory *core.InventoryService,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) ApplicationService {
	return &appService{
		pool:       pool,
		orders:     orders,
		demand:     demand,
		allocator:  allocator,
		picking:    picking,
		shipments:  shipments,
		exceptions: exceptions,
		inventory:  inventory,
		metrics:    metrics,
		log:        log,
	}
}

func (s *appService) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	order, err := s.orders.CreateOrder(ctx, req.Code, req.Channel, req.Lines)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ApproveOrder(ctx context.Context, orderID int) (*OrderResult, error) {
	order, err := s.orders.ApproveOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) CancelOrder(ctx context.Context, orderID int) (*OrderResult, error) {
	order, err := s.orders.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetOrder(ctx context.Context, orderID int) (*OrderDetailResult, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.orders.ListTasks(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetailResult{Order: order, Tasks: tasks}, nil
}

func (s *appService) ListOrders(ctx context.Context, status *core.OrderStatus) (*OrderListResult, error) {
	orders, err := s.orders.ListOrders(ctx, status)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) GetDemand(ctx context.Context, orderID int) (*DemandResult, error) {
	demand, err := s.demand.OutstandingDemand(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &DemandResult{OrderID: orderID, Demand: demand}, nil
}

func (s *appService) PlanAllocation(ctx context.Context, orderID int) (*core.AllocationPlan, error) {
	return s.allocator.Plan(ctx, orderID)
}

// AllocateOrder plans against a fresh snapshot and commits under locks.
// A commit lost to a concurrent allocation invalidates the snapshot, so the
// whole plan/commit pair is retried, not just the commit.
func (s *appService) AllocateOrder(ctx context.Context, req AllocateRequest) (*AllocateResult, error) {
	var lastErr error
	for attempt := 0; attempt <= maxAllocateRetries; attempt++ {
		plan, err := s.allocator.Plan(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		if len(plan.Tasks) == 0 {
			return nil, &core.ValidationError{
				Field:  "order_id",
				Reason: fmt.Sprintf("order %d has no allocatable demand", req.OrderID),
			}
		}

		job, err := s.picking.CommitPlan(ctx, req.OrderID, plan.Tasks, req.AssignedTo)
		if err != nil {
			if errors.Is(err, core.ErrStockConflict) {
				s.metrics.StockConflicts.Inc()
				s.log.Info("allocation commit lost to concurrent stock change, replanning",
					zap.Int("order_id", req.OrderID),
					zap.Int("attempt", attempt+1))
				lastErr = err
				continue
			}
			return nil, err
		}

		s.metrics.AllocationsCommitted.Inc()
		tasks, err := s.orders.ListTasks(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		return &AllocateResult{
			Job:      job,
			Tasks:    tasks,
			Shortage: plan.Shortage,
			Retries:  attempt,
		}, nil
	}
	return nil, fmt.Errorf("order %d: allocation retries exhausted: %w", req.OrderID, lastErr)
}

func (s *appService) DeallocateOrder(ctx context.Context, orderID int) error {
	return s.picking.Deallocate(ctx, orderID)
}

func (s *appService) ConfirmPicks(ctx context.Context, req ConfirmPicksRequest) (*PickResult, error) {
	res, err := s.picking.ConfirmPicks(ctx, req.TaskIDs, req.DestUnitID)
	if err != nil {
		return nil, err
	}
	s.metrics.PicksConfirmed.Add(float64(res.ConfirmedTasks))
	return s.finishPick(ctx, res)
}

func (s *appService) CompleteContainer(ctx context.Context, req CompleteContainerRequest) (*PickResult, error) {
	res, err := s.picking.CompleteContainer(ctx, req.JobID, req.StorageUnitID, req.StagingRef)
	if err != nil {
		return nil, err
	}
	s.metrics.PicksConfirmed.Add(float64(res.ConfirmedTasks))
	return s.finishPick(ctx, res)
}

// finishPick finalizes the shipment when a confirmation completed the order.
// Finalization failure is surfaced but the picks themselves are already
// committed; the caller can retry via FinalizeShipment.
func (s *appService) finishPick(ctx context.Context, res *core.PickConfirmResult) (*PickResult, error) {
	out := &PickResult{
		OrderID:        res.OrderID,
		ConfirmedTasks: res.ConfirmedTasks,
		OrderCompleted: res.OrderCompleted,
	}
	if !res.OrderCompleted {
		return out, nil
	}
	shipment, err := s.shipments.Finalize(ctx, res.OrderID)
	if err != nil {
		return nil, fmt.Errorf("picks confirmed but shipment finalization failed: %w", err)
	}
	s.metrics.ShipmentsFinalized.Inc()
	out.Shipment = shipment
	return out, nil
}

func (s *appService) ReportShortPick(ctx context.Context, req ShortPickRequest) (*ShortPickResult, error) {
	res, err := s.exceptions.ReportShortPick(ctx, req.TaskID, req.ActualQuantity,
		req.DestUnitID, req.Reason, req.ReportedBy)
	if err != nil {
		return nil, err
	}
	s.metrics.ShortPicks.Inc()

	out := &ShortPickResult{
		Exception:      res.Exception,
		OrderID:        res.OrderID,
		OrderCompleted: res.OrderCompleted,
	}
	if res.OrderCompleted {
		shipment, err := s.shipments.Finalize(ctx, res.OrderID)
		if err != nil {
			return nil, fmt.Errorf("short-pick recorded but shipment finalization failed: %w", err)
		}
		s.metrics.ShipmentsFinalized.Inc()
		out.Shipment = shipment
	}
	return out, nil
}

func (s *appService) ResolveException(ctx context.Context, exceptionID int, resolution core.ExceptionResolution) (*core.Exception, error) {
	return s.exceptions.Resolve(ctx, exceptionID, resolution)
}

func (s *appService) ListOpenExceptions(ctx context.Context) ([]core.Exception, error) {
	return s.exceptions.ListOpen(ctx)
}

func (s *appService) FinalizeShipment(ctx context.Context, orderID int) (*core.Shipment, error) {
	shipment, err := s.shipments.Finalize(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.ShipmentsFinalized.Inc()
	return shipment, nil
}

func (s *appService) GetShipment(ctx context.Context, orderID int) (*core.Shipment, error) {
	return s.shipments.GetByOrder(ctx, orderID)
}

func (s *appService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) error {
	return s.inventory.ReceiveStock(ctx, req.ProductID, req.StorageUnitID, req.Quantity)
}

func (s *appService) GetStockLevels(ctx context.Context, pool *core.Channel) (*StockResult, error) {
	levels, err := s.inventory.StockLevels(ctx, pool)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels}, nil
}

func (s *appService) GetLedger(ctx context.Context, productID, limit int) ([]core.LedgerEntry, error) {
	return s.inventory.LedgerEntries(ctx, productID, limit)
}
