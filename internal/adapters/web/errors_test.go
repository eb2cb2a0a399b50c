package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

func TestWriteServiceError_Mapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"NotFound", fmt.Errorf("order 7: %w", core.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"Validation", &core.ValidationError{Field: "quantity", Reason: "must be positive"}, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"StockConflict", fmt.Errorf("bin drained: %w", core.ErrStockConflict), http.StatusConflict, "STOCK_CONFLICT"},
		{"InvalidState", fmt.Errorf("order 7: %w", core.ErrInvalidStateTransition), http.StatusConflict, "INVALID_STATE"},
		{"DuplicateCode", fmt.Errorf("ORD-1: %w", core.ErrDuplicateCode), http.StatusConflict, "DUPLICATE_CODE"},
		{"Unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/orders/7", nil)

			writeServiceError(rec, req, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantCode, resp.Code)
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeServiceError(rec, req, fmt.Errorf("pq: password authentication failed"))

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.NotContains(t, resp.Error, "password")
}
