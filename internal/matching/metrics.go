package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// matchDuration tracks how long one food match takes, by entry point.
	matchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matcher_match_duration_seconds",
		Help:    "Time taken to match one food item by mode",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"mode"}) // mode: single, batch

	// candidateCount tracks deduplicated candidates per food match.
	candidateCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matcher_candidates_count",
		Help:    "Number of deduplicated catalog candidates per food match",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})

	// resultCount tracks results surviving the confidence filter.
	resultCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matcher_results_count",
		Help:    "Number of results returned per food match",
		Buckets: []float64{0, 1, 2, 5, 10},
	})

	// queryErrors tracks catalog reads that failed or timed out.
	queryErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matcher_catalog_query_errors_total",
		Help: "Total catalog queries that failed and contributed zero candidates",
	})

	// matchFailures tracks per-food match failures by entry point.
	matchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcher_match_failures_total",
		Help: "Total failed food matches by mode",
	}, []string{"mode"})

	// correctionsRecorded tracks accepted correction records.
	correctionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcher_corrections_recorded_total",
		Help: "Total correction records accepted, by judgment",
	}, []string{"judgment"}) // judgment: correct, incorrect
)

func observeMatchDuration(mode string, start time.Time) {
	matchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
