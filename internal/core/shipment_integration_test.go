package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

// pickToCompletion drives an order through allocation and confirmation into
// the given tote so shipment tests start from COMPLETED.
func pickToCompletion(t *testing.T, svc *testServices, orderID, toteID int) {
	t.Helper()
	ctx := context.Background()
	_, tasks := allocateOrder(t, svc, orderID)
	taskIDs := make([]int, 0, len(tasks))
	for _, task := range tasks {
		taskIDs = append(taskIDs, task.ID)
	}
	result, err := svc.picking.ConfirmPicks(ctx, taskIDs, toteID)
	if err != nil {
		t.Fatalf("ConfirmPicks: %v", err)
	}
	if !result.OrderCompleted {
		t.Fatal("expected order completed")
	}
}

func TestFinalize_ShipsOrderOnce(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	seedStock(t, svc, 1, 1, "9")
	seedStock(t, svc, 2, 1, "3")
	order := makeApprovedOrder(t, svc, "ORD-300", core.ChannelPiece,
		core.OrderLineInput{ProductID: 1, Quantity: decimal.NewFromInt(9)},
		core.OrderLineInput{ProductID: 2, Quantity: decimal.NewFromInt(3)},
	)
	pickToCompletion(t, svc, order.ID, 10)

	shipment, err := svc.shipments.Finalize(ctx, order.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if shipment.OrderID != order.ID {
		t.Errorf("expected shipment for order %d, got %d", order.ID, shipment.OrderID)
	}
	if shipment.Code == "" {
		t.Error("expected generated shipment code")
	}
	if shipment.ItemCount != 2 || shipment.ContainerCount != 1 {
		t.Errorf("expected 2 items in 1 container, got %d/%d", shipment.ItemCount, shipment.ContainerCount)
	}
	if got := orderStatus(t, pool, order.ID); got != core.OrderShipped {
		t.Errorf("expected SHIPPED, got %s", got)
	}

	// The container left the warehouse: unit SHIPPED, its records deleted.
	var unitStatus core.StorageUnitStatus
	var locationRef *string
	if err := pool.QueryRow(ctx,
		"SELECT status, location_ref FROM storage_units WHERE id = 10").
		Scan(&unitStatus, &locationRef); err != nil {
		t.Fatalf("read unit: %v", err)
	}
	if unitStatus != core.UnitStatusShipped || locationRef != nil {
		t.Errorf("container after ship: status=%s location=%v", unitStatus, locationRef)
	}
	var recordCount int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM inventory_records WHERE storage_unit_id = 10").
		Scan(&recordCount); err != nil {
		t.Fatalf("count records: %v", err)
	}
	if recordCount != 0 {
		t.Errorf("expected container records removed, found %d", recordCount)
	}

	var shipEntries int
	if err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM ledger_entries WHERE order_id = $1 AND entry_type = 'SHIP'
	`, order.ID).Scan(&shipEntries); err != nil {
		t.Fatalf("count ship entries: %v", err)
	}
	if shipEntries != 2 {
		t.Errorf("expected 2 SHIP ledger entries, got %d", shipEntries)
	}

	// Finalizing again returns the same shipment instead of creating another.
	again, err := svc.shipments.Finalize(ctx, order.ID)
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if again.ID != shipment.ID || again.Code != shipment.Code {
		t.Errorf("expected idempotent finalize, got %+v vs %+v", again, shipment)
	}

	fetched, err := svc.shipments.GetByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByOrder: %v", err)
	}
	if fetched.ID != shipment.ID {
		t.Errorf("GetByOrder returned shipment %d, want %d", fetched.ID, shipment.ID)
	}
}

func TestFinalize_RequiresCompletedOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	seedStock(t, svc, 1, 1, "5")
	order := makeApprovedOrder(t, svc, "ORD-301", core.ChannelPiece,
		core.OrderLineInput{ProductID: 1, Quantity: decimal.NewFromInt(5)})

	if _, err := svc.shipments.Finalize(ctx, order.ID); !errors.Is(err, core.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for PENDING order, got %v", err)
	}

	allocateOrder(t, svc, order.ID)
	if _, err := svc.shipments.Finalize(ctx, order.ID); !errors.Is(err, core.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for ALLOCATED order, got %v", err)
	}

	if _, err := svc.shipments.Finalize(ctx, 999999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown order, got %v", err)
	}
}

func TestFinalize_StagedContainerShipsAsIs(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	seedStock(t, svc, 1, 10, "4")
	order := makeApprovedOrder(t, svc, "ORD-302", core.ChannelPiece,
		core.OrderLineInput{ProductID: 1, Quantity: decimal.NewFromInt(4)})
	job, _ := allocateOrder(t, svc, order.ID)

	if _, err := svc.picking.CompleteContainer(ctx, job.ID, 10, "STAGE-02"); err != nil {
		t.Fatalf("CompleteContainer: %v", err)
	}

	shipment, err := svc.shipments.Finalize(ctx, order.ID)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if shipment.ItemCount != 1 || shipment.ContainerCount != 1 {
		t.Errorf("expected 1 item in 1 container, got %d/%d", shipment.ItemCount, shipment.ContainerCount)
	}

	var unitStatus core.StorageUnitStatus
	if err := pool.QueryRow(ctx, "SELECT status FROM storage_units WHERE id = 10").Scan(&unitStatus); err != nil {
		t.Fatalf("read unit: %v", err)
	}
	if unitStatus != core.UnitStatusShipped {
		t.Errorf("expected SHIPPED container, got %s", unitStatus)
	}
}
