package core_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

func qty(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func demandOf(pairs ...int64) map[int]decimal.Decimal {
	d := make(map[int]decimal.Decimal)
	for i := 0; i+1 < len(pairs); i += 2 {
		d[int(pairs[i])] = qty(pairs[i+1])
	}
	return d
}

func TestPlanAllocation_PrefersBinCoveringMoreDemand(t *testing.T) {
	// Unit 1 holds both products and can cover the whole order; units 2 and 3
	// each hold only one product. The plan should visit unit 1 alone.
	demand := demandOf(101, 5, 102, 3)
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: qty(5)},
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 102, Available: qty(3)},
		{StorageUnitID: 2, StorageUnitCode: "BIN-02", ProductID: 101, Available: qty(5)},
		{StorageUnitID: 3, StorageUnitCode: "BIN-03", ProductID: 102, Available: qty(3)},
	}

	tasks, shortage := core.PlanAllocation(demand, stock)

	require.Len(t, tasks, 2)
	assert.Empty(t, shortage)
	for _, task := range tasks {
		assert.Equal(t, 1, task.StorageUnitID)
	}
	assert.Equal(t, 101, tasks[0].ProductID)
	assert.True(t, tasks[0].Quantity.Equal(qty(5)))
	assert.Equal(t, 102, tasks[1].ProductID)
	assert.True(t, tasks[1].Quantity.Equal(qty(3)))
}

func TestPlanAllocation_SpillsToLowerScoredBin(t *testing.T) {
	demand := demandOf(101, 10)
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: qty(6)},
		{StorageUnitID: 2, StorageUnitCode: "BIN-02", ProductID: 101, Available: qty(7)},
	}

	tasks, shortage := core.PlanAllocation(demand, stock)

	require.Len(t, tasks, 2)
	assert.Empty(t, shortage)
	// Unit 2 covers more of the demand, so it is drained first.
	assert.Equal(t, 2, tasks[0].StorageUnitID)
	assert.True(t, tasks[0].Quantity.Equal(qty(7)))
	assert.Equal(t, 1, tasks[1].StorageUnitID)
	assert.True(t, tasks[1].Quantity.Equal(qty(3)))
}

func TestPlanAllocation_ReportsShortage(t *testing.T) {
	demand := demandOf(101, 10, 102, 2)
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: qty(4)},
	}

	tasks, shortage := core.PlanAllocation(demand, stock)

	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Quantity.Equal(qty(4)))
	require.Len(t, shortage, 2)
	assert.True(t, shortage[101].Equal(qty(6)))
	assert.True(t, shortage[102].Equal(qty(2)))
}

func TestPlanAllocation_TieBreaksOnUnitCode(t *testing.T) {
	demand := demandOf(101, 5)
	stock := []core.BinStock{
		{StorageUnitID: 9, StorageUnitCode: "BIN-09", ProductID: 101, Available: qty(5)},
		{StorageUnitID: 2, StorageUnitCode: "BIN-02", ProductID: 101, Available: qty(5)},
	}

	tasks, _ := core.PlanAllocation(demand, stock)

	require.Len(t, tasks, 1)
	assert.Equal(t, 2, tasks[0].StorageUnitID, "equal scores must resolve to the lower unit code")
}

func TestPlanAllocation_AggregatesDuplicateSnapshotRows(t *testing.T) {
	// Two snapshot rows for the same (product, unit) must collapse into one
	// claimable amount, not be allocatable twice.
	demand := demandOf(101, 10)
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: qty(3)},
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: qty(4)},
	}

	tasks, shortage := core.PlanAllocation(demand, stock)

	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Quantity.Equal(qty(7)))
	assert.True(t, shortage[101].Equal(qty(3)))
}

func TestPlanAllocation_NeverClaimsSameStockTwice(t *testing.T) {
	// Both products draw on unit 1. The walk keeps per-bin claimed counters,
	// so total claims per (product, unit) never exceed availability.
	demand := demandOf(101, 4, 102, 4)
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: qty(4)},
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 102, Available: qty(2)},
		{StorageUnitID: 2, StorageUnitCode: "BIN-02", ProductID: 102, Available: qty(2)},
	}

	tasks, shortage := core.PlanAllocation(demand, stock)

	assert.Empty(t, shortage)
	claimed := make(map[[2]int]decimal.Decimal)
	for _, task := range tasks {
		key := [2]int{task.ProductID, task.StorageUnitID}
		claimed[key] = claimed[key].Add(task.Quantity)
	}
	assert.True(t, claimed[[2]int{101, 1}].Equal(qty(4)))
	assert.True(t, claimed[[2]int{102, 1}].Equal(qty(2)))
	assert.True(t, claimed[[2]int{102, 2}].Equal(qty(2)))
}

func TestPlanAllocation_EmptyDemand(t *testing.T) {
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: qty(4)},
	}

	tasks, shortage := core.PlanAllocation(map[int]decimal.Decimal{}, stock)

	assert.Empty(t, tasks)
	assert.Empty(t, shortage)
}

func TestPlanAllocation_IgnoresUndemandedStock(t *testing.T) {
	demand := demandOf(101, 2)
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 999, Available: qty(50)},
		{StorageUnitID: 2, StorageUnitCode: "BIN-02", ProductID: 101, Available: qty(2)},
		{StorageUnitID: 3, StorageUnitCode: "BIN-03", ProductID: 101, Available: qty(0)},
	}

	tasks, shortage := core.PlanAllocation(demand, stock)

	require.Len(t, tasks, 1)
	assert.Equal(t, 2, tasks[0].StorageUnitID)
	assert.Empty(t, shortage)
}

func TestPlanAllocation_FractionalQuantities(t *testing.T) {
	demand := map[int]decimal.Decimal{101: decimal.RequireFromString("2.5")}
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: decimal.RequireFromString("1.75")},
		{StorageUnitID: 2, StorageUnitCode: "BIN-02", ProductID: 101, Available: decimal.RequireFromString("1.75")},
	}

	tasks, shortage := core.PlanAllocation(demand, stock)

	require.Len(t, tasks, 2)
	assert.Empty(t, shortage)
	total := decimal.Zero
	for _, task := range tasks {
		total = total.Add(task.Quantity)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("2.5")))
}

func TestPlanAllocation_Deterministic(t *testing.T) {
	demand := demandOf(101, 8, 102, 5, 103, 12)
	stock := []core.BinStock{
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 101, Available: qty(3)},
		{StorageUnitID: 1, StorageUnitCode: "BIN-01", ProductID: 103, Available: qty(6)},
		{StorageUnitID: 2, StorageUnitCode: "BIN-02", ProductID: 102, Available: qty(5)},
		{StorageUnitID: 2, StorageUnitCode: "BIN-02", ProductID: 101, Available: qty(5)},
		{StorageUnitID: 3, StorageUnitCode: "BIN-03", ProductID: 103, Available: qty(10)},
	}

	firstTasks, firstShortage := core.PlanAllocation(demand, stock)
	for i := 0; i < 10; i++ {
		tasks, shortage := core.PlanAllocation(demand, stock)
		require.Equal(t, firstTasks, tasks, "run %d produced a different task list", i)
		require.Equal(t, firstShortage, shortage, "run %d produced a different shortage map", i)
	}
}
