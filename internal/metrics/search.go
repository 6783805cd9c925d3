package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbase",
			Name:      "search_requests_total",
			Help:      "Total number of executed searches",
		},
		[]string{"collection", "ordering"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kbase",
			Name:      "search_duration_seconds",
			Help:      "Search execution duration in seconds, ranking included",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"collection"},
	)

	SearchTerms = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kbase",
			Name:      "search_terms",
			Help:      "Number of accumulated terms per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	SearchHits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kbase",
			Name:      "search_hits",
			Help:      "Number of hits returned per search",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500},
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchTerms)
	prometheus.MustRegister(SearchHits)
	searchMetricsRegistered = true
}

// SearchRecorder feeds search executions into the package-level collectors.
type SearchRecorder struct{}

// ObserveSearch records one executed search.
func (SearchRecorder) ObserveSearch(collection, ordering string, terms, hits int, took time.Duration) {
	SearchRequestsTotal.WithLabelValues(collection, ordering).Inc()
	SearchDuration.WithLabelValues(collection).Observe(took.Seconds())
	SearchTerms.Observe(float64(terms))
	SearchHits.Observe(float64(hits))
}
