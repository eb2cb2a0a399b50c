package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/app"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

type createOrderRequest struct {
	Code    string `json:"code"`
	Channel string `json:"channel"`
	Lines   []struct {
		ProductID int             `json:"product_id"`
		Quantity  decimal.Decimal `json:"quantity"`
	} `json:"lines"`
}

// createOrder handles POST /api/orders.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lines := make([]core.OrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, core.OrderLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	result, err := h.svc.CreateOrder(r.Context(), app.CreateOrderRequest{
		Code:    req.Code,
		Channel: core.Channel(req.Channel),
		Lines:   lines,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Order)
}

// listOrders handles GET /api/orders?status=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var status *core.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := core.OrderStatus(raw)
		status = &s
	}

	result, err := h.svc.ListOrders(r.Context(), status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Orders)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"order": result.Order,
		"tasks": result.Tasks,
	})
}

// approveOrder handles POST /api/orders/{id}/approve.
func (h *Handler) approveOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ApproveOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// cancelOrder handles POST /api/orders/{id}/cancel.
func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.CancelOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// getDemand handles GET /api/orders/{id}/demand.
func (h *Handler) getDemand(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetDemand(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"order_id": result.OrderID,
		"demand":   result.Demand,
	})
}
