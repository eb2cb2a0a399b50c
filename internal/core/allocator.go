package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BinStock is one row of an inventory snapshot: the unreserved quantity of
// one product sitting in one storage unit.
type BinStock struct {
	StorageUnitID   int
	StorageUnitCode string
	ProductID       int
	Available       decimal.Decimal
}

// PlannedTask is a proposed pick: take Quantity of a product out of a
// storage unit. Nothing is reserved until the plan is committed.
type PlannedTask struct {
	ProductID     int             `json:"product_id"`
	StorageUnitID int             `json:"storage_unit_id"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// AllocationPlan is the output of a planning run: the proposed task list
// plus whatever demand could not be covered. Shortage is data, not an
// error — the order proceeds on what is available.
type AllocationPlan struct {
	OrderID  int                     `json:"order_id"`
	Channel  Channel                 `json:"channel"`
	Tasks    []PlannedTask           `json:"tasks"`
	Shortage map[int]decimal.Decimal `json:"shortage,omitempty"`
}

// binBaseScore is the fixed visit cost added to every candidate bin, so a
// bin covering more total demand always outranks two bins covering the same
// amount between them.
var binBaseScore = decimal.NewFromInt(10)

// PlanAllocation greedily matches demand against a stock snapshot. Pure and
// side-effect free: safe to re-run after a stock conflict, and identical
// inputs always yield the identical task list and shortage map.
//
// Bins (storage units) are scored 10 + Σ min(available, needed) over the
// demanded products they hold, favoring bins that satisfy the most demand
// and so minimizing pick visits. Ties break on the bin code ascending. The
// walk keeps a local claimed counter per bin so stock spoken for earlier in
// the same pass is never handed out twice.
func PlanAllocation(demand map[int]decimal.Decimal, stock []BinStock) ([]PlannedTask, map[int]decimal.Decimal) {
	type bin struct {
		unitID    int
		code      string
		available map[int]decimal.Decimal
	}

	bins := make(map[int]*bin)
	for _, row := range stock {
		if !row.Available.IsPositive() {
			continue
		}
		need, wanted := demand[row.ProductID]
		if !wanted || !need.IsPositive() {
			continue
		}
		b := bins[row.StorageUnitID]
		if b == nil {
			b = &bin{unitID: row.StorageUnitID, code: row.StorageUnitCode, available: make(map[int]decimal.Decimal)}
			bins[row.StorageUnitID] = b
		}
		// Duplicate snapshot rows for the same (product, unit) collapse here
		// instead of being claimable twice.
		b.available[row.ProductID] = b.available[row.ProductID].Add(row.Available)
	}

	ranked := make([]*bin, 0, len(bins))
	scores := make(map[int]decimal.Decimal, len(bins))
	for _, b := range bins {
		score := binBaseScore
		for productID, avail := range b.available {
			score = score.Add(decimal.Min(avail, demand[productID]))
		}
		scores[b.unitID] = score
		ranked = append(ranked, b)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i].unitID], scores[ranked[j].unitID]
		if !si.Equal(sj) {
			return si.GreaterThan(sj)
		}
		return ranked[i].code < ranked[j].code
	})

	remaining := make(map[int]decimal.Decimal, len(demand))
	for productID, need := range demand {
		if need.IsPositive() {
			remaining[productID] = need
		}
	}

	var tasks []PlannedTask
	for _, b := range ranked {
		productIDs := make([]int, 0, len(b.available))
		for productID := range b.available {
			productIDs = append(productIDs, productID)
		}
		sort.Ints(productIDs)

		for _, productID := range productIDs {
			need := remaining[productID]
			if !need.IsPositive() {
				continue
			}
			take := decimal.Min(need, b.available[productID])
			if !take.IsPositive() {
				continue
			}
			tasks = append(tasks, PlannedTask{
				ProductID:     productID,
				StorageUnitID: b.unitID,
				Quantity:      take,
			})
			remaining[productID] = need.Sub(take)
			b.available[productID] = b.available[productID].Sub(take)
		}
	}

	shortage := make(map[int]decimal.Decimal)
	for productID, need := range remaining {
		if need.IsPositive() {
			shortage[productID] = need
		}
	}
	return tasks, shortage
}

// AllocationService turns outstanding order demand into an allocation plan
// against a recent, channel-scoped inventory snapshot. Planning is read-only
// and runs unlocked; only CommitPlan verifies availability under locks.
type AllocationService struct {
	pool   *pgxpool.Pool
	demand *DemandService
}

func NewAllocationService(pool *pgxpool.Pool, demand *DemandService) *AllocationService {
	return &AllocationService{pool: pool, demand: demand}
}

// Plan resolves the order's outstanding demand and runs the greedy
// allocator over stock in the order's channel pool. Units already bound to
// another order or no longer active are excluded from the snapshot.
func (s *AllocationService) Plan(ctx context.Context, orderID int) (*AllocationPlan, error) {
	var channel Channel
	err := s.pool.QueryRow(ctx, "SELECT channel FROM orders WHERE id = $1", orderID).Scan(&channel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}

	demand, err := s.demand.OutstandingDemand(ctx, orderID)
	if err != nil {
		return nil, err
	}

	plan := &AllocationPlan{OrderID: orderID, Channel: channel, Shortage: map[int]decimal.Decimal{}}
	if len(demand) == 0 {
		return plan, nil
	}

	productIDs := make([]int, 0, len(demand))
	for productID := range demand {
		productIDs = append(productIDs, productID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT ir.product_id, ir.storage_unit_id, su.code,
		       ir.quantity - ir.allocated_quantity
		FROM inventory_records ir
		JOIN storage_units su ON su.id = ir.storage_unit_id
		WHERE su.pool = $1
		  AND su.status = 'ACTIVE'
		  AND su.assigned_order_id IS NULL
		  AND ir.product_id = ANY($2)
		  AND ir.quantity - ir.allocated_quantity > 0
	`, channel, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock snapshot: %w", err)
	}
	defer rows.Close()

	var stock []BinStock
	for rows.Next() {
		var bs BinStock
		if err := rows.Scan(&bs.ProductID, &bs.StorageUnitID, &bs.StorageUnitCode, &bs.Available); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		stock = append(stock, bs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	plan.Tasks, plan.Shortage = PlanAllocation(demand, stock)
	return plan, nil
}
