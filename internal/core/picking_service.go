package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier is the fire-and-forget notification collaborator. Implementations
// must never block the calling operation on delivery and never return the
// delivery outcome to it.
type Notifier interface {
	JobAssigned(ctx context.Context, job PickingJob, taskCount int)
	ExceptionReported(ctx context.Context, exc Exception)
}

// PickConfirmResult summarizes one confirm batch. OrderCompleted signals
// that every task across every job of the order is now COMPLETED; the
// caller is expected to finalize the shipment.
type PickConfirmResult struct {
	OrderID        int  `json:"order_id"`
	ConfirmedTasks int  `json:"confirmed_tasks"`
	OrderCompleted bool `json:"order_completed"`
}

// PickingService commits allocation plans into picking jobs and drives
// tasks through confirmation. All mutations run in one transaction per
// call, with row locks on the order and on every touched inventory record;
// concurrent attempts against the same stock serialize on those locks and
// losers surface ErrStockConflict.
type PickingService struct {
	pool     *pgxpool.Pool
	notifier Notifier
	log      *zap.Logger
}

func NewPickingService(pool *pgxpool.Pool, notifier Notifier, log *zap.Logger) *PickingService {
	return &PickingService{pool: pool, notifier: notifier, log: log}
}

// CommitPlan atomically turns a plan from the allocator into a picking job.
// The planning snapshot may be stale, so availability is re-checked under a
// lock on each record; any shortfall aborts the whole transaction with
// ErrStockConflict and the caller replans against fresh data.
func (s *PickingService) CommitPlan(ctx context.Context, orderID int, tasks []PlannedTask, assignedTo string) (*PickingJob, error) {
	if len(tasks) == 0 {
		return nil, validationErr("tasks", "plan has no tasks")
	}
	for _, t := range tasks {
		if !t.Quantity.IsPositive() {
			return nil, validationErr("tasks", fmt.Sprintf("non-positive quantity for product %d", t.ProductID))
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	var approved bool
	err = tx.QueryRow(ctx, "SELECT status, approved FROM orders WHERE id = $1 FOR UPDATE", orderID).
		Scan(&status, &approved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	if err := checkTransition(orderID, status, OrderAllocated); err != nil {
		return nil, err
	}
	if !approved {
		return nil, fmt.Errorf("order %d is not approved: %w", orderID, ErrInvalidStateTransition)
	}

	// Lock records in a stable order so two commits touching the same stock
	// cannot deadlock.
	sorted := make([]PlannedTask, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].StorageUnitID < sorted[j].StorageUnitID
	})

	// The snapshot only saw ACTIVE, unbound units, but a concurrent confirm
	// may have bound or staged one since. Re-check every source unit under
	// lock; a stale unit is a conflict the caller resolves by replanning.
	unitIDs := make([]int, 0, len(sorted))
	seen := make(map[int]bool, len(sorted))
	for _, t := range sorted {
		if !seen[t.StorageUnitID] {
			seen[t.StorageUnitID] = true
			unitIDs = append(unitIDs, t.StorageUnitID)
		}
	}
	sort.Ints(unitIDs)
	for _, unitID := range unitIDs {
		var unitStatus StorageUnitStatus
		var assigned *int
		err = tx.QueryRow(ctx, `
			SELECT status, assigned_order_id FROM storage_units WHERE id = $1 FOR UPDATE
		`, unitID).Scan(&unitStatus, &assigned)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("storage unit %d: %w", unitID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock storage unit %d: %w", unitID, err)
		}
		if unitStatus != UnitStatusActive {
			return nil, fmt.Errorf("storage unit %d is %s: %w", unitID, unitStatus, ErrStockConflict)
		}
		if assigned != nil && *assigned != orderID {
			return nil, fmt.Errorf("storage unit %d is bound to order %d: %w", unitID, *assigned, ErrStockConflict)
		}
	}

	var job PickingJob
	err = tx.QueryRow(ctx, `
		INSERT INTO picking_jobs (order_id, assigned_to)
		VALUES ($1, $2)
		RETURNING id, order_id, status, assigned_to, created_at
	`, orderID, assignedTo).Scan(&job.ID, &job.OrderID, &job.Status, &job.AssignedTo, &job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create picking job for order %d: %w", orderID, err)
	}

	for _, t := range sorted {
		var onHand, allocated decimal.Decimal
		err = tx.QueryRow(ctx, `
			SELECT quantity, allocated_quantity
			FROM inventory_records
			WHERE product_id = $1 AND storage_unit_id = $2
			FOR UPDATE
		`, t.ProductID, t.StorageUnitID).Scan(&onHand, &allocated)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d in unit %d no longer stocked: %w", t.ProductID, t.StorageUnitID, ErrStockConflict)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock inventory record (%d, %d): %w", t.ProductID, t.StorageUnitID, err)
		}
		if onHand.Sub(allocated).LessThan(t.Quantity) {
			return nil, fmt.Errorf("product %d in unit %d: available %s, need %s: %w",
				t.ProductID, t.StorageUnitID, onHand.Sub(allocated).String(), t.Quantity.String(), ErrStockConflict)
		}

		_, err = tx.Exec(ctx, `
			UPDATE inventory_records
			SET allocated_quantity = allocated_quantity + $1, updated_at = NOW()
			WHERE product_id = $2 AND storage_unit_id = $3
		`, t.Quantity, t.ProductID, t.StorageUnitID)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve stock for product %d: %w", t.ProductID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO picking_tasks (job_id, product_id, storage_unit_id, quantity)
			VALUES ($1, $2, $3, $4)
		`, job.ID, t.ProductID, t.StorageUnitID, t.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to create picking task for product %d: %w", t.ProductID, err)
		}

		unitID := t.StorageUnitID
		if err := appendLedgerEntry(ctx, tx, LedgerAllocate, t.ProductID, t.Quantity, &unitID, nil, &orderID); err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(ctx, "UPDATE orders SET status = $1 WHERE id = $2", OrderAllocated, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to transition order %d to ALLOCATED: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit allocation for order %d: %w", orderID, err)
	}

	s.log.Info("allocation committed",
		zap.Int("order_id", orderID),
		zap.Int("job_id", job.ID),
		zap.Int("tasks", len(sorted)))
	s.notifier.JobAssigned(ctx, job, len(sorted))
	return &job, nil
}

// ConfirmPicks confirms a batch of tasks into a destination container.
// Either every effect in the batch lands or none does; a partially applied
// confirm is never observable.
func (s *PickingService) ConfirmPicks(ctx context.Context, taskIDs []int, destUnitID int) (*PickConfirmResult, error) {
	if len(taskIDs) == 0 {
		return nil, validationErr("task_ids", "empty batch")
	}
	if destUnitID <= 0 {
		return nil, validationErr("dest_unit_id", "missing destination container")
	}

	// Resolve the owning order first (unlocked), then lock the order before
	// the tasks so confirm and deallocate serialize in the same direction.
	var orderCount int
	var minOrder *int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT pj.order_id), MIN(pj.order_id)
		FROM picking_tasks pt
		JOIN picking_jobs pj ON pj.id = pt.job_id
		WHERE pt.id = ANY($1)
	`, taskIDs).Scan(&orderCount, &minOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve order for task batch: %w", err)
	}
	if orderCount == 0 {
		return nil, fmt.Errorf("tasks %v: %w", taskIDs, ErrNotFound)
	}
	if orderCount > 1 {
		return nil, validationErr("task_ids", "batch spans multiple orders")
	}
	orderID := *minOrder

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	err = tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	if status == OrderAllocated {
		if err := transitionOrderTx(ctx, tx, orderID, status, OrderPicking); err != nil {
			return nil, err
		}
		status = OrderPicking
	}
	if status != OrderPicking {
		return nil, fmt.Errorf("order %d: confirm in status %s: %w", orderID, status, ErrInvalidStateTransition)
	}

	tasks, err := s.lockTasks(ctx, tx, taskIDs, orderID)
	if err != nil {
		return nil, err
	}

	if err := bindDestinationTx(ctx, tx, destUnitID, orderID); err != nil {
		return nil, err
	}

	for _, t := range tasks {
		if err := moveStockTx(ctx, tx, t, t.Quantity, destUnitID, orderID); err != nil {
			return nil, err
		}
	}

	completed, err := finishOrderIfDoneTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit pick confirmation: %w", err)
	}

	s.log.Info("picks confirmed",
		zap.Int("order_id", orderID),
		zap.Int("tasks", len(tasks)),
		zap.Int("dest_unit_id", destUnitID),
		zap.Bool("order_completed", completed))
	return &PickConfirmResult{OrderID: orderID, ConfirmedTasks: len(tasks), OrderCompleted: completed}, nil
}

// CompleteContainer is the whole-container fast path: every pending task of
// (job, unit) is confirmed in one step, the stock stays inside the
// container, and the container itself is bound to the order and relocated
// to the staging area.
func (s *PickingService) CompleteContainer(ctx context.Context, jobID, unitID int, stagingRef string) (*PickConfirmResult, error) {
	if stagingRef == "" {
		return nil, validationErr("staging_ref", "missing staging location")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int
	err = tx.QueryRow(ctx, "SELECT order_id FROM picking_jobs WHERE id = $1", jobID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("picking job %d: %w", jobID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch picking job %d: %w", jobID, err)
	}

	var status OrderStatus
	err = tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	if status == OrderAllocated {
		if err := transitionOrderTx(ctx, tx, orderID, status, OrderPicking); err != nil {
			return nil, err
		}
		status = OrderPicking
	}
	if status != OrderPicking {
		return nil, fmt.Errorf("order %d: container completion in status %s: %w", orderID, status, ErrInvalidStateTransition)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, job_id, product_id, storage_unit_id, quantity, status
		FROM picking_tasks
		WHERE job_id = $1 AND storage_unit_id = $2 AND status = $3
		ORDER BY id
		FOR UPDATE
	`, jobID, unitID, TaskPending)
	if err != nil {
		return nil, fmt.Errorf("failed to lock container tasks: %w", err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no pending tasks for job %d in unit %d: %w", jobID, unitID, ErrNotFound)
	}

	if err := bindDestinationTx(ctx, tx, unitID, orderID); err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE storage_units SET status = $1, location_ref = $2 WHERE id = $3
	`, UnitStatusStaged, stagingRef, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to stage container %d: %w", unitID, err)
	}

	// The stock does not move: the reservation is realized in place and the
	// container ships as-is.
	for _, t := range tasks {
		if err := moveStockTx(ctx, tx, t, t.Quantity, unitID, orderID); err != nil {
			return nil, err
		}
	}

	completed, err := finishOrderIfDoneTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit container completion: %w", err)
	}

	s.log.Info("container completed",
		zap.Int("order_id", orderID),
		zap.Int("job_id", jobID),
		zap.Int("unit_id", unitID),
		zap.Int("tasks", len(tasks)))
	return &PickConfirmResult{OrderID: orderID, ConfirmedTasks: len(tasks), OrderCompleted: completed}, nil
}

// Deallocate reverses a committed allocation: reservations are released,
// tasks and the job are removed, and the order returns to PENDING. The
// audit trail is not deleted — a RELEASE entry mirrors every original
// ALLOCATE amount.
func (s *PickingService) Deallocate(ctx context.Context, orderID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status OrderStatus
	err = tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1 FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	if err := checkTransition(orderID, status, OrderPending); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, `
		SELECT pt.id, pt.job_id, pt.product_id, pt.storage_unit_id, pt.quantity, pt.status
		FROM picking_tasks pt
		JOIN picking_jobs pj ON pj.id = pt.job_id
		WHERE pj.order_id = $1
		ORDER BY pt.product_id, pt.storage_unit_id
		FOR UPDATE OF pt
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to lock tasks for order %d: %w", orderID, err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return err
	}

	for _, t := range tasks {
		_, err = tx.Exec(ctx, `
			UPDATE inventory_records
			SET allocated_quantity = allocated_quantity - $1, updated_at = NOW()
			WHERE product_id = $2 AND storage_unit_id = $3
		`, t.Quantity, t.ProductID, t.StorageUnitID)
		if err != nil {
			return fmt.Errorf("failed to release reservation for product %d: %w", t.ProductID, err)
		}

		unitID := t.StorageUnitID
		if err := appendLedgerEntry(ctx, tx, LedgerRelease, t.ProductID, t.Quantity.Neg(), &unitID, nil, &orderID); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM picking_jobs WHERE order_id = $1
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete picking jobs for order %d: %w", orderID, err)
	}

	_, err = tx.Exec(ctx, "UPDATE orders SET status = $1 WHERE id = $2", OrderPending, orderID)
	if err != nil {
		return fmt.Errorf("failed to transition order %d to PENDING: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit deallocation for order %d: %w", orderID, err)
	}

	s.log.Info("order deallocated", zap.Int("order_id", orderID), zap.Int("released_tasks", len(tasks)))
	return nil
}

// ── internals ────────────────────────────────────────────────────────────────

// lockTasks re-reads the batch under FOR UPDATE and validates every task is
// found, PENDING, and belongs to the expected order.
func (s *PickingService) lockTasks(ctx context.Context, tx pgx.Tx, taskIDs []int, orderID int) ([]PickingTask, error) {
	rows, err := tx.Query(ctx, `
		SELECT pt.id, pt.job_id, pt.product_id, pt.storage_unit_id, pt.quantity, pt.status
		FROM picking_tasks pt
		JOIN picking_jobs pj ON pj.id = pt.job_id
		WHERE pt.id = ANY($1) AND pj.order_id = $2
		ORDER BY pt.id
		FOR UPDATE OF pt
	`, taskIDs, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock task batch: %w", err)
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) != len(taskIDs) {
		return nil, fmt.Errorf("task batch resolved %d of %d tasks for order %d: %w",
			len(tasks), len(taskIDs), orderID, ErrNotFound)
	}
	for _, t := range tasks {
		if t.Status != TaskPending {
			return nil, fmt.Errorf("task %d already %s: %w", t.ID, t.Status, ErrInvalidStateTransition)
		}
	}
	return tasks, nil
}

// bindDestination locks the destination container and binds it to the order.
// A container already bound to a different, unshipped order is a conflict.
func bindDestinationTx(ctx context.Context, tx pgx.Tx, unitID, orderID int) error {
	var kind StorageUnitKind
	var unitStatus StorageUnitStatus
	var assigned *int
	err := tx.QueryRow(ctx, `
		SELECT kind, status, assigned_order_id FROM storage_units WHERE id = $1 FOR UPDATE
	`, unitID).Scan(&kind, &unitStatus, &assigned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("storage unit %d: %w", unitID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock storage unit %d: %w", unitID, err)
	}
	if unitStatus == UnitStatusShipped {
		return fmt.Errorf("storage unit %d already shipped: %w", unitID, ErrInvalidStateTransition)
	}
	if assigned != nil && *assigned != orderID {
		return fmt.Errorf("storage unit %d is bound to order %d: %w", unitID, *assigned, ErrInvalidStateTransition)
	}
	if assigned == nil {
		_, err = tx.Exec(ctx, "UPDATE storage_units SET assigned_order_id = $1 WHERE id = $2", orderID, unitID)
		if err != nil {
			return fmt.Errorf("failed to bind storage unit %d to order %d: %w", unitID, orderID, err)
		}
	}
	return nil
}

// moveStock realizes a reservation: the source record loses qty on hand and
// allocated alike, the destination record gains it, the task completes at
// the moved quantity, and a MOVE entry lands in the ledger. When source and
// destination are the same unit (container fast path) the net stock change
// is zero but the reservation is still retired.
func moveStockTx(ctx context.Context, tx pgx.Tx, t PickingTask, moved decimal.Decimal, destUnitID, orderID int) error {
	var onHand, allocated decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT quantity, allocated_quantity
		FROM inventory_records
		WHERE product_id = $1 AND storage_unit_id = $2
		FOR UPDATE
	`, t.ProductID, t.StorageUnitID).Scan(&onHand, &allocated)
	if err != nil {
		return fmt.Errorf("failed to lock inventory record (%d, %d): %w", t.ProductID, t.StorageUnitID, err)
	}
	if onHand.LessThan(moved) || allocated.LessThan(t.Quantity) {
		return fmt.Errorf("record (%d, %d) does not cover task %d: %w", t.ProductID, t.StorageUnitID, t.ID, ErrStockConflict)
	}

	if t.StorageUnitID == destUnitID {
		// Container fast path: retire the reservation, stock stays put.
		_, err = tx.Exec(ctx, `
			UPDATE inventory_records
			SET allocated_quantity = allocated_quantity - $1, updated_at = NOW()
			WHERE product_id = $2 AND storage_unit_id = $3
		`, t.Quantity, t.ProductID, t.StorageUnitID)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE inventory_records
			SET quantity = quantity - $1, allocated_quantity = allocated_quantity - $2, updated_at = NOW()
			WHERE product_id = $3 AND storage_unit_id = $4
		`, moved, t.Quantity, t.ProductID, t.StorageUnitID)
	}
	if err != nil {
		return fmt.Errorf("failed to consume stock for task %d: %w", t.ID, err)
	}

	if t.StorageUnitID != destUnitID && moved.IsPositive() {
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_records (product_id, storage_unit_id, quantity, allocated_quantity)
			VALUES ($1, $2, $3, 0)
			ON CONFLICT (product_id, storage_unit_id)
			DO UPDATE SET quantity = inventory_records.quantity + $3, updated_at = NOW()
		`, t.ProductID, destUnitID, moved)
		if err != nil {
			return fmt.Errorf("failed to upsert destination record for task %d: %w", t.ID, err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE picking_tasks SET quantity = $1, status = $2 WHERE id = $3
	`, moved, TaskCompleted, t.ID)
	if err != nil {
		return fmt.Errorf("failed to complete task %d: %w", t.ID, err)
	}

	if moved.IsPositive() {
		_, err = tx.Exec(ctx, `
			UPDATE order_lines SET quantity_picked = quantity_picked + $1
			WHERE id = (
				SELECT id FROM order_lines
				WHERE order_id = $2 AND product_id = $3
				ORDER BY id
				LIMIT 1
			)
		`, moved, orderID, t.ProductID)
		if err != nil {
			return fmt.Errorf("failed to update picked quantity for product %d: %w", t.ProductID, err)
		}

		srcID, dstID := t.StorageUnitID, destUnitID
		if err := appendLedgerEntry(ctx, tx, LedgerMove, t.ProductID, moved, &srcID, &dstID, &orderID); err != nil {
			return err
		}
	}

	// Zero-quantity records left behind by a full move are harmless reads;
	// the shipment finalizer deletes the ones attached to shipped containers.
	return nil
}

// finishIfDone completes the jobs and the order when no PENDING task
// remains anywhere on the order.
func finishOrderIfDoneTx(ctx context.Context, tx pgx.Tx, orderID int) (bool, error) {
	var pending int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM picking_tasks pt
		JOIN picking_jobs pj ON pj.id = pt.job_id
		WHERE pj.order_id = $1 AND pt.status = $2
	`, orderID, TaskPending).Scan(&pending)
	if err != nil {
		return false, fmt.Errorf("failed to count pending tasks for order %d: %w", orderID, err)
	}
	if pending > 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, "UPDATE picking_jobs SET status = $1 WHERE order_id = $2", JobCompleted, orderID)
	if err != nil {
		return false, fmt.Errorf("failed to complete jobs for order %d: %w", orderID, err)
	}
	if err := transitionOrderTx(ctx, tx, orderID, OrderPicking, OrderCompleted); err != nil {
		return false, err
	}
	return true, nil
}

func transitionOrderTx(ctx context.Context, tx pgx.Tx, orderID int, from, to OrderStatus) error {
	if err := checkTransition(orderID, from, to); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, "UPDATE orders SET status = $1 WHERE id = $2", to, orderID)
	if err != nil {
		return fmt.Errorf("failed to transition order %d to %s: %w", orderID, to, err)
	}
	return nil
}

func scanTasks(rows pgx.Rows) ([]PickingTask, error) {
	defer rows.Close()
	var tasks []PickingTask
	for rows.Next() {
		var t PickingTask
		if err := rows.Scan(&t.ID, &t.JobID, &t.ProductID, &t.StorageUnitID, &t.Quantity, &t.Status); err != nil {
			return nil, fmt.Errorf("failed to scan picking task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating picking tasks: %w", err)
	}
	return tasks, nil
}
