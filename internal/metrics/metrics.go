package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ToolCallsTotal counts external tool invocations by outcome.
	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "summarizer",
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Total external tool invocations",
		},
		[]string{"tool", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "summarizer",
			Subsystem: "tools",
			Name:      "duration_seconds",
			Help:      "External tool execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"tool"},
	)

	CardRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "summarizer",
			Subsystem: "cards",
			Name:      "requests_total",
			Help:      "Total card requests by page, method and HTTP status",
		},
		[]string{"page", "method", "status"},
	)

	ModelUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "summarizer",
			Subsystem: "models",
			Name:      "usage_total",
			Help:      "Successful user-facing actions per model name",
		},
		[]string{"model"},
	)
)

func init() {
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(CardRequestsTotal)
	prometheus.MustRegister(ModelUsageTotal)
}

func RecordToolCall(tool, status string, durationSec float64) {
	if status == "" {
		status = "unknown"
	}
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
	ToolDuration.WithLabelValues(tool).Observe(durationSec)
}

func RecordCardRequest(page, method, status string) {
	CardRequestsTotal.WithLabelValues(page, method, status).Inc()
}

func RecordModelUsage(model string) {
	ModelUsageTotal.WithLabelValues(model).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
