package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation pipeline Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "urpick",
			Name:      "provider_requests_total",
			Help:      "Total number of shopping provider search requests",
		},
		[]string{"source", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "urpick",
			Name:      "provider_request_duration_seconds",
			Help:      "Shopping provider search duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"source"},
	)

	ReasoningRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "urpick",
			Name:      "reasoning_requests_total",
			Help:      "Total number of reasoning service calls",
		},
		[]string{"operation", "status"},
	)

	ReasoningRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "urpick",
			Name:      "reasoning_request_duration_seconds",
			Help:      "Reasoning service call duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"operation"},
	)

	ReasoningTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "urpick",
			Name:      "reasoning_tokens_total",
			Help:      "Total reasoning tokens consumed",
		},
		[]string{"operation", "type"},
	)

	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "urpick",
			Name:      "recommendations_total",
			Help:      "Total recommendation requests by strategy",
		},
		[]string{"strategy"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers the pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ReasoningRequestsTotal)
	prometheus.MustRegister(ReasoningRequestDuration)
	prometheus.MustRegister(ReasoningTokensTotal)
	prometheus.MustRegister(RecommendationsTotal)
	pipelineMetricsRegistered = true
}
