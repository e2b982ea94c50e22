package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsExportsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/produtos/selecionar", 200, 120*time.Millisecond)
	m.Observe("GET", "/api/produtos/selecionar", 200, 80*time.Millisecond)
	m.Observe("DELETE", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"method": "GET", "route": "/api/produtos/selecionar", "status": "200"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "http_requests_total", map[string]string{"method": "DELETE", "route": "unknown", "status": "404"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	mf := findMetricFamily(mfs, "http_request_duration_seconds")
	require.NotNil(t, mf, "histogram not exported")
	var count uint64
	for _, metric := range mf.GetMetric() {
		count += metric.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, uint64(3), count)
}

func TestEventMetricsSplitsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEventMetrics(reg)
	m.IncPublished("product.created")
	m.IncPublished("product.created")
	m.IncFailed("product.deleted")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "product_events_published_total", map[string]string{"event": "product.created", "result": "ok"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "product_events_published_total", map[string]string{"event": "product.deleted", "result": "error"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestNilRegistererIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
		NewEventMetrics(nil).IncFailed("product.created")

		var m *HTTPMetrics
		m.Observe("GET", "/", 200, time.Second)
	})
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if hasLabels(metric, labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with labels %v not found", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if pair.GetValue() != want {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}
