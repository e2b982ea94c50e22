package metrics

import "github.com/prometheus/client_golang/prometheus"

// EventMetrics counts product event publish attempts.
type EventMetrics struct {
	published *prometheus.CounterVec
}

// NewEventMetrics registers the event counter on the provided registerer.
func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	if reg == nil {
		return &EventMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_events_published_total",
		Help: "Product events handed to the broker, by event and result.",
	}, []string{"event", "result"})
	reg.MustRegister(published)
	return &EventMetrics{published: published}
}

// IncPublished counts a successful publish.
func (e *EventMetrics) IncPublished(event string) {
	if e == nil || e.published == nil {
		return
	}
	e.published.WithLabelValues(normalizeLabel(event), "ok").Inc()
}

// IncFailed counts a failed publish.
func (e *EventMetrics) IncFailed(event string) {
	if e == nil || e.published == nil {
		return
	}
	e.published.WithLabelValues(normalizeLabel(event), "error").Inc()
}
