package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/app"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

// planAllocation handles GET /api/orders/{id}/plan.
func (h *Handler) planAllocation(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	plan, err := h.svc.PlanAllocation(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, plan)
}

type allocateRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// allocateOrder handles POST /api/orders/{id}/allocate.
func (h *Handler) allocateOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	// assigned_to is optional; a bare POST allocates with no assignee.
	var req allocateRequest
	if !decodeJSONOptional(w, r, &req) {
		return
	}

	result, err := h.svc.AllocateOrder(r.Context(), app.AllocateRequest{
		OrderID:    orderID,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{
		"job":      result.Job,
		"tasks":    result.Tasks,
		"shortage": result.Shortage,
		"retries":  result.Retries,
	})
}

// deallocateOrder handles POST /api/orders/{id}/deallocate.
func (h *Handler) deallocateOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeallocateOrder(r.Context(), orderID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "deallocated"})
}

type confirmPicksRequest struct {
	TaskIDs    []int `json:"task_ids"`
	DestUnitID int   `json:"dest_unit_id"`
}

// confirmPicks handles POST /api/picks/confirm.
func (h *Handler) confirmPicks(w http.ResponseWriter, r *http.Request) {
	var req confirmPicksRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.ConfirmPicks(r.Context(), app.ConfirmPicksRequest{
		TaskIDs:    req.TaskIDs,
		DestUnitID: req.DestUnitID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

type completeContainerRequest struct {
	StorageUnitID int    `json:"storage_unit_id"`
	StagingRef    string `json:"staging_ref"`
}

// completeContainer handles POST /api/jobs/{id}/container-complete.
func (h *Handler) completeContainer(w http.ResponseWriter, r *http.Request) {
	jobID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	var req completeContainerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CompleteContainer(r.Context(), app.CompleteContainerRequest{
		JobID:         jobID,
		StorageUnitID: req.StorageUnitID,
		StagingRef:    req.StagingRef,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

type shortPickRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	DestUnitID     int             `json:"dest_unit_id"`
	Reason         string          `json:"reason"`
	ReportedBy     string          `json:"reported_by"`
}

// reportShortPick handles POST /api/tasks/{id}/exception.
func (h *Handler) reportShortPick(w http.ResponseWriter, r *http.Request) {
	taskID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	var req shortPickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.ReportShortPick(r.Context(), app.ShortPickRequest{
		TaskID:         taskID,
		ActualQuantity: req.ActualQuantity,
		DestUnitID:     req.DestUnitID,
		Reason:         req.Reason,
		ReportedBy:     req.ReportedBy,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result)
}

// listExceptions handles GET /api/exceptions.
func (h *Handler) listExceptions(w http.ResponseWriter, r *http.Request) {
	exceptions, err := h.svc.ListOpenExceptions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, exceptions)
}

type resolveExceptionRequest struct {
	Resolution string `json:"resolution"`
}

// resolveException handles POST /api/exceptions/{id}/resolve.
func (h *Handler) resolveException(w http.ResponseWriter, r *http.Request) {
	exceptionID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	var req resolveExceptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	exc, err := h.svc.ResolveException(r.Context(), exceptionID, core.ExceptionResolution(req.Resolution))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, exc)
}

// finalizeShipment handles POST /api/orders/{id}/ship.
func (h *Handler) finalizeShipment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	shipment, err := h.svc.FinalizeShipment(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, shipment)
}

// getShipment handles GET /api/orders/{id}/shipment.
func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	shipment, err := h.svc.GetShipment(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, shipment)
}
