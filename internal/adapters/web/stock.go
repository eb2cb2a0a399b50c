package web

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/app"
	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

type receiveStockRequest struct {
	ProductID     int             `json:"product_id"`
	StorageUnitID int             `json:"storage_unit_id"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// receiveStock handles POST /api/stock/receive.
func (h *Handler) receiveStock(w http.ResponseWriter, r *http.Request) {
	var req receiveStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.svc.ReceiveStock(r.Context(), app.ReceiveStockRequest{
		ProductID:     req.ProductID,
		StorageUnitID: req.StorageUnitID,
		Quantity:      req.Quantity,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"status": "received"})
}

// stockLevels handles GET /api/stock?pool=.
func (h *Handler) stockLevels(w http.ResponseWriter, r *http.Request) {
	var pool *core.Channel
	if raw := r.URL.Query().Get("pool"); raw != "" {
		c := core.Channel(raw)
		if !c.Valid() {
			writeError(w, r, "invalid pool: "+raw, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		pool = &c
	}

	result, err := h.svc.GetStockLevels(r.Context(), pool)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Levels)
}

// productLedger handles GET /api/products/{id}/ledger?limit=.
func (h *Handler) productLedger(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlParamInt(w, r, "id")
	if !ok {
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, r, "invalid limit: "+raw, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.svc.GetLedger(r.Context(), productID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entries)
}
