package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics for liveness, detection, and gateway calls.
var (
	LivenessAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livegate",
			Name:      "liveness_attempts_total",
			Help:      "Total liveness verification attempts",
		},
		[]string{"result", "challenge"}, // result: passed / failed / error
	)

	LivenessCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "livegate",
			Name:      "liveness_check_duration_seconds",
			Help:      "Liveness check duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 10},
		},
		[]string{"check"}, // motion / blink / head_turn
	)

	DetectorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livegate",
			Name:      "detector_requests_total",
			Help:      "Total descriptor source requests",
		},
		[]string{"status"}, // detected / no_face / error
	)

	DetectorRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "livegate",
			Name:      "detector_request_duration_seconds",
			Help:      "Descriptor source request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livegate",
			Name:      "gateway_requests_total",
			Help:      "Total match gateway requests",
		},
		[]string{"op", "status"}, // op: match / enroll / record
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "livegate",
			Name:      "gateway_request_duration_seconds",
			Help:      "Match gateway request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	EnrollmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livegate",
			Name:      "enrollments_total",
			Help:      "Total enrollment sessions",
		},
		[]string{"status"}, // completed / aborted / conflict
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(LivenessAttemptsTotal)
	prometheus.MustRegister(LivenessCheckDuration)
	prometheus.MustRegister(DetectorRequestsTotal)
	prometheus.MustRegister(DetectorRequestDuration)
	prometheus.MustRegister(GatewayRequestsTotal)
	prometheus.MustRegister(GatewayRequestDuration)
	prometheus.MustRegister(EnrollmentsTotal)
	pipelineMetricsRegistered = true
}
