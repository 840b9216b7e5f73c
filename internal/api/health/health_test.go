package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthyStore(t *testing.T) {
	checker := NewChecker(pingerFunc(func(ctx context.Context) error { return nil }), "test")

	rec := httptest.NewRecorder()
	checker.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, StatusHealthy, resp.Components["database"].Status)
	assert.Equal(t, "test", resp.Version)
}

func TestUnreachableStore(t *testing.T) {
	checker := NewChecker(pingerFunc(func(ctx context.Context) error {
		return errors.New("connection refused")
	}), "test")

	rec := httptest.NewRecorder()
	checker.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Components["database"].Message, "connection refused")
}

func TestNilPinger(t *testing.T) {
	checker := NewChecker(nil, "test")

	resp := checker.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
}
