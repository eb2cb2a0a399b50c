package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, metricsHandler http.Handler, allowedOrigins string, log *zap.Logger) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)
	r.Get("/metrics", metricsHandler.ServeHTTP)

	// 1 MB body limit on all mutating endpoints.
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20))

		// Orders
		r.Post("/api/orders", h.createOrder)
		r.Get("/api/orders", h.listOrders)
		r.Get("/api/orders/{id}", h.getOrder)
		r.Post("/api/orders/{id}/approve", h.approveOrder)
		r.Post("/api/orders/{id}/cancel", h.cancelOrder)

		// Allocation
		r.Get("/api/orders/{id}/demand", h.getDemand)
		r.Get("/api/orders/{id}/plan", h.planAllocation)
		r.Post("/api/orders/{id}/allocate", h.allocateOrder)
		r.Post("/api/orders/{id}/deallocate", h.deallocateOrder)

		// Picking
		r.Post("/api/picks/confirm", h.confirmPicks)
		r.Post("/api/jobs/{id}/container-complete", h.completeContainer)

		// Exceptions
		r.Post("/api/tasks/{id}/exception", h.reportShortPick)
		r.Get("/api/exceptions", h.listExceptions)
		r.Post("/api/exceptions/{id}/resolve", h.resolveException)

		// Shipments
		r.Post("/api/orders/{id}/ship", h.finalizeShipment)
		r.Get("/api/orders/{id}/shipment", h.getShipment)

		// Inventory
		r.Post("/api/stock/receive", h.receiveStock)
		r.Get("/api/stock", h.stockLevels)
		r.Get("/api/products/{id}/ledger", h.productLedger)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	resp := response{Status: "ok", Database: "ok"}
	if err := h.svc.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
	}
	writeJSON(w, resp)
}

// urlParamInt extracts a positive integer URL parameter; writes a 400 and
// returns false on anything else.
func urlParamInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+" parameter: "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an
// appropriate error response on failure. Returns HTTP 413 when the body
// exceeds the size limit set by RequestBodyLimit; HTTP 400 for all other
// decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return writeDecodeError(w, r, err)
	}
	return true
}

// decodeJSONOptional is decodeJSON for endpoints where every field has a
// default: an empty body is accepted and leaves v untouched.
func decodeJSONOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	return writeDecodeError(w, r, err)
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
		return false
	}
	writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	return false
}
