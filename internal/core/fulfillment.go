package core

import "fmt"

// orderTransitions is the only legal edge set of the fulfillment state
// machine. Every mutating service consults it before writing; anything
// outside the graph fails with ErrInvalidStateTransition and mutates nothing.
//
//	PENDING   → ALLOCATED  commit (requires order approval)
//	ALLOCATED → PICKING    first pick-confirm
//	ALLOCATED → PENDING    deallocate
//	PICKING   → COMPLETED  last task confirmed
//	COMPLETED → SHIPPED    shipment finalized (terminal)
//	PENDING   → CANCELLED  cancel (terminal)
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderAllocated, OrderCancelled},
	OrderAllocated: {OrderPicking, OrderPending},
	OrderPicking:   {OrderCompleted},
	OrderCompleted: {OrderShipped},
}

// CanTransition reports whether from → to is a legal order status change.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition returns an ErrInvalidStateTransition describing the
// rejected edge, or nil when the move is legal.
func checkTransition(orderID int, from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("order %d: %s → %s: %w", orderID, from, to, ErrInvalidStateTransition)
	}
	return nil
}
