package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sift",
			Name:      "search_batches_total",
			Help:      "Total number of executed search batches",
		},
		[]string{"endpoint", "status"},
	)

	SearchBatchRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sift",
			Name:      "search_batch_requests",
			Help:      "Physical requests derived per search batch",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"endpoint"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchBatchesTotal)
	prometheus.MustRegister(SearchBatchRequests)
	searchMetricsRegistered = true
}
