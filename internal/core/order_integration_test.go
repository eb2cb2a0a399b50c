package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

func TestOrder_CreateAndLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	t.Run("Create_Success", func(t *testing.T) {
		order, err := svc.orders.CreateOrder(ctx, "ORD-500", core.ChannelPiece,
			[]core.OrderLineInput{
				{ProductID: 1, Quantity: decimal.NewFromInt(3)},
				{ProductID: 2, Quantity: decimal.NewFromInt(1)},
			})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		if order.Status != core.OrderPending || order.Approved {
			t.Errorf("expected fresh PENDING unapproved order, got %+v", order)
		}
		if len(order.Lines) != 2 {
			t.Errorf("expected 2 lines, got %d", len(order.Lines))
		}
	})

	t.Run("Create_DuplicateCode", func(t *testing.T) {
		_, err := svc.orders.CreateOrder(ctx, "ORD-500", core.ChannelPiece,
			[]core.OrderLineInput{{ProductID: 1, Quantity: decimal.NewFromInt(1)}})
		if !errors.Is(err, core.ErrDuplicateCode) {
			t.Errorf("expected ErrDuplicateCode, got %v", err)
		}
	})

	t.Run("Create_Validation", func(t *testing.T) {
		cases := []struct {
			name    string
			code    string
			channel core.Channel
			lines   []core.OrderLineInput
		}{
			{"EmptyCode", "", core.ChannelPiece, []core.OrderLineInput{{ProductID: 1, Quantity: decimal.NewFromInt(1)}}},
			{"BadChannel", "ORD-V1", "retail", []core.OrderLineInput{{ProductID: 1, Quantity: decimal.NewFromInt(1)}}},
			{"NoLines", "ORD-V2", core.ChannelPiece, nil},
			{"ZeroQuantity", "ORD-V3", core.ChannelPiece, []core.OrderLineInput{{ProductID: 1, Quantity: decimal.Zero}}},
		}
		for _, tc := range cases {
			if _, err := svc.orders.CreateOrder(ctx, tc.code, tc.channel, tc.lines); !core.IsValidation(err) {
				t.Errorf("%s: expected validation error, got %v", tc.name, err)
			}
		}
	})

	t.Run("Create_UnknownProduct", func(t *testing.T) {
		_, err := svc.orders.CreateOrder(ctx, "ORD-501", core.ChannelPiece,
			[]core.OrderLineInput{{ProductID: 999999, Quantity: decimal.NewFromInt(1)}})
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ApproveThenCancel", func(t *testing.T) {
		order, err := svc.orders.CreateOrder(ctx, "ORD-502", core.ChannelBulk,
			[]core.OrderLineInput{{ProductID: 3, Quantity: decimal.RequireFromString("12.5")}})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}

		approved, err := svc.orders.ApproveOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("ApproveOrder: %v", err)
		}
		if !approved.Approved {
			t.Error("expected approved flag set")
		}

		cancelled, err := svc.orders.CancelOrder(ctx, order.ID)
		if err != nil {
			t.Fatalf("CancelOrder: %v", err)
		}
		if cancelled.Status != core.OrderCancelled {
			t.Errorf("expected CANCELLED, got %s", cancelled.Status)
		}

		// Terminal: nothing moves a cancelled order.
		if _, err := svc.orders.ApproveOrder(ctx, order.ID); !errors.Is(err, core.ErrInvalidStateTransition) {
			t.Errorf("expected ErrInvalidStateTransition approving cancelled order, got %v", err)
		}
		if _, err := svc.orders.CancelOrder(ctx, order.ID); !errors.Is(err, core.ErrInvalidStateTransition) {
			t.Errorf("expected ErrInvalidStateTransition cancelling twice, got %v", err)
		}
	})

	t.Run("Approve_NotFound", func(t *testing.T) {
		if _, err := svc.orders.ApproveOrder(ctx, 999999); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListByStatus", func(t *testing.T) {
		cancelled := core.OrderCancelled
		orders, err := svc.orders.ListOrders(ctx, &cancelled)
		if err != nil {
			t.Fatalf("ListOrders: %v", err)
		}
		if len(orders) != 1 || orders[0].Code != "ORD-502" {
			t.Errorf("expected only ORD-502 cancelled, got %+v", orders)
		}
	})
}

func TestCancel_AllocatedOrderRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	seedStock(t, svc, 1, 1, "5")
	order := makeApprovedOrder(t, svc, "ORD-503", core.ChannelPiece,
		core.OrderLineInput{ProductID: 1, Quantity: decimal.NewFromInt(5)})
	allocateOrder(t, svc, order.ID)

	// An allocated order must be deallocated before it can be cancelled.
	if _, err := svc.orders.CancelOrder(ctx, order.ID); !errors.Is(err, core.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if err := svc.picking.Deallocate(ctx, order.ID); err != nil {
		t.Fatalf("Deallocate: %v", err)
	}
	if _, err := svc.orders.CancelOrder(ctx, order.ID); err != nil {
		t.Fatalf("CancelOrder after deallocate: %v", err)
	}
}

func TestOutstandingDemand(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newTestServices(pool)
	ctx := context.Background()

	t.Run("SumsDuplicateLines", func(t *testing.T) {
		order, err := svc.orders.CreateOrder(ctx, "ORD-504", core.ChannelPiece,
			[]core.OrderLineInput{
				{ProductID: 1, Quantity: decimal.NewFromInt(3)},
				{ProductID: 1, Quantity: decimal.NewFromInt(2)},
				{ProductID: 2, Quantity: decimal.NewFromInt(1)},
			})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}

		demand, err := svc.demand.OutstandingDemand(ctx, order.ID)
		if err != nil {
			t.Fatalf("OutstandingDemand: %v", err)
		}
		if !demand[1].Equal(decimal.NewFromInt(5)) {
			t.Errorf("expected summed demand 5 for product 1, got %v", demand)
		}
		if !demand[2].Equal(decimal.NewFromInt(1)) {
			t.Errorf("expected demand 1 for product 2, got %v", demand)
		}
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		if _, err := svc.demand.OutstandingDemand(ctx, 999999); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
