package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the ops command service
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Dispatch Metrics
	TurnsTotal           *prometheus.CounterVec
	TurnDuration         *prometheus.HistogramVec
	ToolInvocationsTotal *prometheus.CounterVec

	// Model Metrics
	ModelCallsTotal   *prometheus.CounterVec
	ModelCallDuration *prometheus.HistogramVec

	// Row Store Metrics
	RowStoreOpsTotal   *prometheus.CounterVec
	RowStoreOpDuration *prometheus.HistogramVec
}

// NewMetricsRegistry initializes all metrics against reg.
// Pass prometheus.DefaultRegisterer in binaries and prometheus.NewRegistry() in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skylark_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skylark_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skylark_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Dispatch Metrics
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skylark_chat_turns_total",
				Help: "Chat turns processed by resolver strategy and resolution kind",
			},
			[]string{"resolver", "kind"},
		),
		TurnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skylark_chat_turn_duration_seconds",
				Help:    "End-to-end chat turn latency in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"resolver"},
		),
		ToolInvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skylark_tool_invocations_total",
				Help: "Tool invocations by tool name and outcome",
			},
			[]string{"tool", "outcome"},
		),

		// Model Metrics
		ModelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skylark_model_calls_total",
				Help: "Language model completions by provider and result",
			},
			[]string{"provider", "result"},
		),
		ModelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skylark_model_call_duration_seconds",
				Help:    "Language model completion latency in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),

		// Row Store Metrics
		RowStoreOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skylark_rowstore_operations_total",
				Help: "Row store operations by backend, operation, and result",
			},
			[]string{"backend", "operation", "result"},
		),
		RowStoreOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "skylark_rowstore_operation_duration_seconds",
				Help:    "Row store operation latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"backend", "operation"},
		),
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRowStoreOp records one row store call. Safe on a nil registry.
func (m *MetricsRegistry) ObserveRowStoreOp(backend, op string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.RowStoreOpsTotal.WithLabelValues(backend, op, resultLabel(err)).Inc()
	m.RowStoreOpDuration.WithLabelValues(backend, op).Observe(d.Seconds())
}

// ObserveModelCall records one model completion. Safe on a nil registry.
func (m *MetricsRegistry) ObserveModelCall(provider string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.ModelCallsTotal.WithLabelValues(provider, resultLabel(err)).Inc()
	m.ModelCallDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveTurn records one completed chat turn. Safe on a nil registry.
func (m *MetricsRegistry) ObserveTurn(resolver, kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(resolver, kind).Inc()
	m.TurnDuration.WithLabelValues(resolver).Observe(d.Seconds())
}

// CountToolInvocation records one tool execution. Safe on a nil registry.
func (m *MetricsRegistry) CountToolInvocation(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
}
