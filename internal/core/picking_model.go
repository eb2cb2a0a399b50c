package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobOpen      JobStatus = "OPEN"
	JobCompleted JobStatus = "COMPLETED"
)

// PickingJob groups the tasks created by one committed allocation plan.
type PickingJob struct {
	ID         int       `json:"id"`
	OrderID    int       `json:"order_id"`
	Status     JobStatus `json:"status"`
	AssignedTo string    `json:"assigned_to"`
	CreatedAt  time.Time `json:"created_at"`
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "PENDING"
	TaskCompleted TaskStatus = "COMPLETED"
)

// PickingTask instructs a worker to take Quantity of a product out of one
// storage unit. Created at commit time; its quantity is already soft-reserved
// on the matching inventory record.
type PickingTask struct {
	ID            int             `json:"id"`
	JobID         int             `json:"job_id"`
	ProductID     int             `json:"product_id"`
	StorageUnitID int             `json:"storage_unit_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Status        TaskStatus      `json:"status"`
}

// Shipment is the immutable record of a fully picked order leaving the
// warehouse. Exactly one exists per shipped order.
type Shipment struct {
	ID             int       `json:"id"`
	OrderID        int       `json:"order_id"`
	Code           string    `json:"code"`
	ItemCount      int       `json:"item_count"`
	ContainerCount int       `json:"container_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type ExceptionStatus string

const (
	ExceptionOpen     ExceptionStatus = "OPEN"
	ExceptionApproved ExceptionStatus = "APPROVED"
)

// ExceptionResolution is the human decision on a short-pick.
type ExceptionResolution string

const (
	// ResolutionWriteOff permanently excuses the shortfall against the order.
	ResolutionWriteOff ExceptionResolution = "WRITE_OFF"
	// ResolutionReallocate leaves the demand outstanding for a manual
	// re-plan and re-commit.
	ResolutionReallocate ExceptionResolution = "REALLOCATE"
)

// Exception records a short-pick: a task confirmed with less than its
// requested quantity. It never blocks the job; it waits for a human decision.
type Exception struct {
	ID              int                  `json:"id"`
	TaskID          int                  `json:"task_id"`
	QuantityMissing decimal.Decimal      `json:"quantity_missing"`
	Reason          string               `json:"reason"`
	Status          ExceptionStatus      `json:"status"`
	Resolution      *ExceptionResolution `json:"resolution,omitempty"`
	ReportedBy      string               `json:"reported_by"`
	CreatedAt       time.Time            `json:"created_at"`
	ResolvedAt      *time.Time           `json:"resolved_at,omitempty"`
}
