package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

func TestReceiveStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	t.Run("CreatesAndIncrementsRecord", func(t *testing.T) {
		seedStock(t, svc, 1, 1, "5")
		seedStock(t, svc, 1, 1, "2.5")

		onHand, allocated := recordState(t, pool, 1, 1)
		if !onHand.Equal(decimal.RequireFromString("7.5")) || !allocated.IsZero() {
			t.Errorf("record: on_hand=%s allocated=%s", onHand, allocated)
		}
	})

	t.Run("RejectsNonPositiveQuantity", func(t *testing.T) {
		err := svc.inventory.ReceiveStock(ctx, 1, 1, decimal.Zero)
		if !core.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("RejectsUnknownUnit", func(t *testing.T) {
		err := svc.inventory.ReceiveStock(ctx, 1, 999999, decimal.NewFromInt(1))
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RejectsUnknownProduct", func(t *testing.T) {
		err := svc.inventory.ReceiveStock(ctx, 999999, 1, decimal.NewFromInt(1))
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("WritesReceiptLedgerEntry", func(t *testing.T) {
		entries, err := svc.inventory.LedgerEntries(ctx, 1, 10)
		if err != nil {
			t.Fatalf("LedgerEntries: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		// Newest first.
		if entries[0].EntryType != core.LedgerReceipt || !entries[0].Quantity.Equal(decimal.RequireFromString("2.5")) {
			t.Errorf("unexpected newest entry: %+v", entries[0])
		}
	})
}

func TestStockLevels_PoolFilter(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	seedStock(t, svc, 1, 1, "5")  // piece bin
	seedStock(t, svc, 3, 3, "80") // bulk location

	all, err := svc.inventory.StockLevels(ctx, nil)
	if err != nil {
		t.Fatalf("StockLevels(nil): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(all))
	}

	piece := core.ChannelPiece
	pieceOnly, err := svc.inventory.StockLevels(ctx, &piece)
	if err != nil {
		t.Fatalf("StockLevels(piece): %v", err)
	}
	if len(pieceOnly) != 1 {
		t.Fatalf("expected 1 piece level, got %d", len(pieceOnly))
	}
	if pieceOnly[0].SKU != "SKU-001" || pieceOnly[0].Pool != core.ChannelPiece {
		t.Errorf("unexpected level: %+v", pieceOnly[0])
	}
	if !pieceOnly[0].Available.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected available 5, got %s", pieceOnly[0].Available)
	}
}

func TestPlan_ChannelScoping(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	// Product 1 exists in both pools; a piece order must only see piece bins.
	seedStock(t, svc, 1, 1, "3")
	seedStock(t, svc, 1, 3, "100")

	order := makeApprovedOrder(t, svc, "ORD-400", core.ChannelPiece,
		core.OrderLineInput{ProductID: 1, Quantity: decimal.NewFromInt(10)})

	plan, err := svc.allocator.Plan(ctx, order.ID)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Tasks) != 1 || plan.Tasks[0].StorageUnitID != 1 {
		t.Fatalf("expected a single task from the piece bin, got %+v", plan.Tasks)
	}
	if !plan.Shortage[1].Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected shortage 7 despite bulk stock, got %v", plan.Shortage)
	}
}

func TestPlan_ExcludesBoundContainers(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	seedStock(t, svc, 1, 10, "6")

	// Bind the box to another order; its stock must vanish from snapshots.
	other := makeApprovedOrder(t, svc, "ORD-401", core.ChannelPiece,
		core.OrderLineInput{ProductID: 1, Quantity: decimal.NewFromInt(1)})
	if _, err := pool.Exec(ctx,
		"UPDATE storage_units SET assigned_order_id = $1 WHERE id = 10", other.ID); err != nil {
		t.Fatalf("bind unit: %v", err)
	}

	order := makeApprovedOrder(t, svc, "ORD-402", core.ChannelPiece,
		core.OrderLineInput{ProductID: 1, Quantity: decimal.NewFromInt(2)})
	plan, err := svc.allocator.Plan(ctx, order.ID)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Tasks) != 0 {
		t.Fatalf("expected no tasks from a bound container, got %+v", plan.Tasks)
	}
}
