package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeJSONOptional_EmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/7/allocate", nil)

	var body allocateRequest
	ok := decodeJSONOptional(rec, req, &body)

	assert.True(t, ok)
	assert.Empty(t, body.AssignedTo)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDecodeJSONOptional_ValidBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/7/allocate",
		strings.NewReader(`{"assigned_to": "worker-4"}`))

	var body allocateRequest
	ok := decodeJSONOptional(rec, req, &body)

	assert.True(t, ok)
	assert.Equal(t, "worker-4", body.AssignedTo)
}

func TestDecodeJSONOptional_MalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/7/allocate",
		strings.NewReader(`{"assigned_to":`))

	var body allocateRequest
	ok := decodeJSONOptional(rec, req, &body)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
