package worker

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthServer_Liveness(t *testing.T) {
	h := NewHealthServer(":0", slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.handleLiveness(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHealthServer_Readiness(t *testing.T) {
	h := NewHealthServer(":0", slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	rr := httptest.NewRecorder()
	h.handleReadiness(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code, "not ready before SetReady")

	h.SetReady(true)
	rr = httptest.NewRecorder()
	h.handleReadiness(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	h.SetReady(false)
	rr = httptest.NewRecorder()
	h.handleReadiness(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code, "not ready after shutdown flip")
}
