package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to core.OrderStatus
	}{
		{core.OrderPending, core.OrderAllocated},
		{core.OrderPending, core.OrderCancelled},
		{core.OrderAllocated, core.OrderPicking},
		{core.OrderAllocated, core.OrderPending},
		{core.OrderPicking, core.OrderCompleted},
		{core.OrderCompleted, core.OrderShipped},
	}
	for _, tc := range allowed {
		assert.True(t, core.CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	blocked := []struct {
		from, to core.OrderStatus
	}{
		{core.OrderPending, core.OrderPicking},
		{core.OrderPending, core.OrderShipped},
		{core.OrderAllocated, core.OrderCancelled},
		{core.OrderAllocated, core.OrderCompleted},
		{core.OrderPicking, core.OrderPending},
		{core.OrderPicking, core.OrderCancelled},
		{core.OrderCompleted, core.OrderPending},
		{core.OrderShipped, core.OrderPending},
		{core.OrderShipped, core.OrderCompleted},
		{core.OrderCancelled, core.OrderPending},
		{core.OrderCancelled, core.OrderAllocated},
	}
	for _, tc := range blocked {
		assert.False(t, core.CanTransition(tc.from, tc.to), "%s -> %s should be blocked", tc.from, tc.to)
	}
}
