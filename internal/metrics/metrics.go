package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for API calls.
const (
	OutcomeSuccess   = "success"
	OutcomeDeclared  = "declared_error"
	OutcomeTransport = "transport_error"
)

// ClientMetrics records API call and workflow outcomes in a private registry.
type ClientMetrics struct {
	registry *prometheus.Registry

	apiCalls     *prometheus.CounterVec
	apiDuration  *prometheus.HistogramVec
	workflows    *prometheus.CounterVec
	notifyActive prometheus.Gauge
}

// New creates ClientMetrics with its own registry.
func New() *ClientMetrics {
	registry := prometheus.NewRegistry()

	apiCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartorg",
			Subsystem: "api",
			Name:      "calls_total",
			Help:      "Total API calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	apiDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartorg",
			Subsystem: "api",
			Name:      "call_duration_seconds",
			Help:      "API call latency in seconds by operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)
	workflows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartorg",
			Subsystem: "workflow",
			Name:      "completed_total",
			Help:      "Completed user workflows by name and result.",
		},
		[]string{"workflow", "result"},
	)
	notifyActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "smartorg",
			Subsystem: "notify",
			Name:      "active",
			Help:      "Notifications currently queued.",
		},
	)

	registry.MustRegister(apiCalls, apiDuration, workflows, notifyActive)

	return &ClientMetrics{
		registry:     registry,
		apiCalls:     apiCalls,
		apiDuration:  apiDuration,
		workflows:    workflows,
		notifyActive: notifyActive,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCall records one API call. Safe on a nil receiver.
func (m *ClientMetrics) ObserveCall(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.apiCalls.WithLabelValues(operation, outcome).Inc()
	m.apiDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveWorkflow records a finished workflow. Safe on a nil receiver.
func (m *ClientMetrics) ObserveWorkflow(workflow string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.workflows.WithLabelValues(workflow, result).Inc()
}

// SetActiveNotifications updates the queued-notification gauge. Safe on a nil receiver.
func (m *ClientMetrics) SetActiveNotifications(n int) {
	if m == nil {
		return
	}
	m.notifyActive.Set(float64(n))
}
