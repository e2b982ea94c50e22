package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"produtos/internal/repositories"
	"produtos/internal/services"
	"produtos/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func newTestDeps() Deps {
	reg := prometheus.NewRegistry()
	return Deps{
		Products:    services.NewProductService(repositories.NewMemoryProductRepository(), nil, nil, zerolog.Nop()),
		Gatherer:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Log:         zerolog.Nop(),
	}
}

func call(t *testing.T, deps Deps, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := NewApp(deps).Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "memory store",
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "healthy", "database": "memory"},
		},
		{
			name:       "database up",
			pinger:     stubPinger{},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "healthy", "database": "up"},
		},
		{
			name:       "database down",
			pinger:     stubPinger{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"status": "unhealthy", "database": "down", "error": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			deps.Database = tt.pinger

			resp, body := call(t, deps, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var got map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &got))
			for k, v := range tt.wantBody {
				assert.Equal(t, v, got[k], k)
			}
			assert.NotEmpty(t, got["time"])
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	deps := newTestDeps()

	resp, _ := call(t, deps, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, _ = call(t, deps, req)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestUnknownRouteUsesJSONErrors(t *testing.T) {
	resp, body := call(t, newTestDeps(), httptest.NewRequest(http.MethodGet, "/api/produtos/nada", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Cannot GET /api/produtos/nada"}`, body)
}

func TestMetricsEndpoint(t *testing.T) {
	deps := newTestDeps()
	app := NewApp(deps)

	req := httptest.NewRequest(http.MethodPost, "/api/produtos/inserir",
		strings.NewReader(`{"nome":"Frango Frito","preco":19.9,"quantidadeEstoque":20}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="POST",route="/api/produtos/inserir",status="200"} 1`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	deps := newTestDeps()
	deps.Gatherer = nil

	resp, _ := call(t, deps, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	deps := newTestDeps()
	deps.AccessLog = &buf

	req := httptest.NewRequest(http.MethodGet, "/api/produtos/selecionar", nil)
	req.Header.Set("X-Request-ID", "log-me")
	resp, body := call(t, deps, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", body)

	assert.Contains(t, buf.String(), "log-me")
	assert.Contains(t, buf.String(), "/api/produtos/selecionar")
}
