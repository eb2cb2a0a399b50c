package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShortPickResult pairs the created exception with the order progress the
// short confirm produced.
type ShortPickResult struct {
	Exception      Exception `json:"exception"`
	OrderID        int       `json:"order_id"`
	OrderCompleted bool      `json:"order_completed"`
}

// ExceptionService records short-picks and applies the later human decision
// on them. A short-pick never blocks its job: the task completes at the
// actual quantity and the shortfall waits as a durable row.
type ExceptionService struct {
	pool     *pgxpool.Pool
	notifier Notifier
	log      *zap.Logger
}

func NewExceptionService(pool *pgxpool.Pool, notifier Notifier, log *zap.Logger) *ExceptionService {
	return &ExceptionService{pool: pool, notifier: notifier, log: log}
}

// ReportShortPick confirms a task at actual < requested. The task completes
// with quantity = actual, the full reservation is retired, the picked units
// move into the destination container, and an Exception row records the
// missing amount. The job proceeds to its remaining tasks. Shortfall does
// not reduce what the order is owed unless a write-off later waives it.
func (s *ExceptionService) ReportShortPick(ctx context.Context, taskID int, actual decimal.Decimal, destUnitID int, reason, reportedBy string) (*ShortPickResult, error) {
	if actual.IsNegative() {
		return nil, validationErr("actual_quantity", "must not be negative")
	}
	if actual.IsPositive() && destUnitID <= 0 {
		return nil, validationErr("dest_unit_id", "destination container required when actual > 0")
	}

	var orderID int
	err := s.pool.QueryRow(ctx, `
		SELECT pj.order_id FROM picking_tasks pt
		JOIN picking_jobs pj ON pj.id = pt.job_id
		WHERE pt.id = $1
	`, taskID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve order for task %d: %w", taskID, err)
	}

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
		return nil, fmt.Errorf("order %d: short-pick in status %s: %w", orderID, status, ErrInvalidStateTransition)
	}

	var t PickingTask
	err = tx.QueryRow(ctx, `
		SELECT id, job_id, product_id, storage_unit_id, quantity, status
		FROM picking_tasks WHERE id = $1 FOR UPDATE
	`, taskID).Scan(&t.ID, &t.JobID, &t.ProductID, &t.StorageUnitID, &t.Quantity, &t.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to lock task %d: %w", taskID, err)
	}
	if t.Status != TaskPending {
		return nil, fmt.Errorf("task %d already %s: %w", t.ID, t.Status, ErrInvalidStateTransition)
	}
	if actual.GreaterThan(t.Quantity) {
		return nil, validationErr("actual_quantity", fmt.Sprintf("exceeds requested %s", t.Quantity.String()))
	}

	missing := t.Quantity.Sub(actual)

	if actual.IsPositive() {
		if err := bindDestinationTx(ctx, tx, destUnitID, orderID); err != nil {
			return nil, err
		}
		if err := moveStockTx(ctx, tx, t, actual, destUnitID, orderID); err != nil {
			return nil, err
		}
	} else {
		// Nothing was found to pick: retire the reservation and close the
		// task at zero.
		_, err = tx.Exec(ctx, `
			UPDATE inventory_records
			SET allocated_quantity = allocated_quantity - $1, updated_at = NOW()
			WHERE product_id = $2 AND storage_unit_id = $3
		`, t.Quantity, t.ProductID, t.StorageUnitID)
		if err != nil {
			return nil, fmt.Errorf("failed to retire reservation for task %d: %w", t.ID, err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE picking_tasks SET quantity = 0, status = $1 WHERE id = $2
		`, TaskCompleted, t.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to complete task %d: %w", t.ID, err)
		}
	}

	// The move above only accounts for actual; the shortfall's reservation
	// is released here and must reach the ledger like any deallocation.
	if missing.IsPositive() {
		unitID := t.StorageUnitID
		if err := appendLedgerEntry(ctx, tx, LedgerRelease, t.ProductID, missing.Neg(), &unitID, nil, &orderID); err != nil {
			return nil, err
		}
	}

	var exc Exception
	err = tx.QueryRow(ctx, `
		INSERT INTO exceptions (task_id, quantity_missing, reason, reported_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, task_id, quantity_missing, reason, status, resolution, reported_by, created_at, resolved_at
	`, taskID, missing, reason, reportedBy).
		Scan(&exc.ID, &exc.TaskID, &exc.QuantityMissing, &exc.Reason, &exc.Status, &exc.Resolution,
			&exc.ReportedBy, &exc.CreatedAt, &exc.ResolvedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create exception for task %d: %w", taskID, err)
	}

	completed, err := finishOrderIfDoneTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit short-pick for task %d: %w", taskID, err)
	}

	s.log.Warn("short-pick reported",
		zap.Int("task_id", taskID),
		zap.Int("order_id", orderID),
		zap.String("missing", missing.String()),
		zap.String("reason", reason))
	s.notifier.ExceptionReported(ctx, exc)
	return &ShortPickResult{Exception: exc, OrderID: orderID, OrderCompleted: completed}, nil
}

// Resolve applies the human decision on an OPEN exception. WRITE_OFF
// permanently waives the missing quantity against the order line, removing
// it from outstanding demand. REALLOCATE leaves the demand open; the
// operator then re-plans and re-commits explicitly — there is no automatic
// retry.
func (s *ExceptionService) Resolve(ctx context.Context, exceptionID int, resolution ExceptionResolution) (*Exception, error) {
	if resolution != ResolutionWriteOff && resolution != ResolutionReallocate {
		return nil, validationErr("resolution", "must be WRITE_OFF or REALLOCATE")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exc Exception
	var orderID, productID int
	err = tx.QueryRow(ctx, `
		SELECT e.id, e.task_id, e.quantity_missing, e.reason, e.status, e.reported_by, e.created_at,
		       pj.order_id, pt.product_id
		FROM exceptions e
		JOIN picking_tasks pt ON pt.id = e.task_id
		JOIN picking_jobs pj ON pj.id = pt.job_id
		WHERE e.id = $1
		FOR UPDATE OF e
	`, exceptionID).Scan(&exc.ID, &exc.TaskID, &exc.QuantityMissing, &exc.Reason, &exc.Status,
		&exc.ReportedBy, &exc.CreatedAt, &orderID, &productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("exception %d: %w", exceptionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock exception %d: %w", exceptionID, err)
	}
	if exc.Status != ExceptionOpen {
		return nil, fmt.Errorf("exception %d already %s: %w", exceptionID, exc.Status, ErrInvalidStateTransition)
	}

	if resolution == ResolutionWriteOff && exc.QuantityMissing.IsPositive() {
		_, err = tx.Exec(ctx, `
			UPDATE order_lines SET quantity_waived = quantity_waived + $1
			WHERE id = (
				SELECT id FROM order_lines
				WHERE order_id = $2 AND product_id = $3
				ORDER BY id
				LIMIT 1
			)
		`, exc.QuantityMissing, orderID, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to waive shortfall for exception %d: %w", exceptionID, err)
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE exceptions SET status = $1, resolution = $2, resolved_at = NOW()
		WHERE id = $3
		RETURNING status, resolution, resolved_at
	`, ExceptionApproved, resolution, exceptionID).Scan(&exc.Status, &exc.Resolution, &exc.ResolvedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve exception %d: %w", exceptionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit exception resolution: %w", err)
	}

	s.log.Info("exception resolved",
		zap.Int("exception_id", exceptionID),
		zap.String("resolution", string(resolution)))
	return &exc, nil
}

// ListOpen returns the exceptions still awaiting a decision.
func (s *ExceptionService) ListOpen(ctx context.Context) ([]Exception, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, quantity_missing, reason, status, resolution, reported_by, created_at, resolved_at
		FROM exceptions
		WHERE status = $1
		ORDER BY created_at
	`, ExceptionOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query open exceptions: %w", err)
	}
	defer rows.Close()

	var excs []Exception
	for rows.Next() {
		var e Exception
		if err := rows.Scan(&e.ID, &e.TaskID, &e.QuantityMissing, &e.Reason, &e.Status, &e.Resolution,
			&e.ReportedBy, &e.CreatedAt, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exception: %w", err)
		}
		excs = append(excs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exceptions: %w", err)
	}
	return excs, nil
}
