// Package metrics exposes Prometheus collectors for the feed bot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recordsFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedbot_records_fetched_total",
			Help: "Total number of raw records returned by the upstream fetch.",
		},
	)

	fetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedbot_fetch_retries_total",
			Help: "Total number of fetch attempts that failed and were retried.",
		},
	)

	recordsFilteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedbot_records_filtered_total",
			Help: "Total number of records surviving the interest filters.",
		},
	)

	sinkPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedbot_sink_pages_total",
			Help: "Total sink page operations, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedbot_runs_total",
			Help: "Total pipeline runs, labeled by status.",
		},
		[]string{"status"},
	)

	runDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedbot_run_duration_seconds",
			Help:    "Histogram of pipeline run durations.",
			Buckets: []float64{1, 5, 15, 60, 120, 300, 600},
		},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetched adds to the fetched-records counter.
func ObserveFetched(count int) {
	recordsFetchedTotal.Add(float64(count))
}

// ObserveFetchRetry increments the fetch retry counter.
func ObserveFetchRetry() {
	fetchRetriesTotal.Inc()
}

// ObserveFiltered adds to the surviving-records counter.
func ObserveFiltered(count int) {
	recordsFilteredTotal.Add(float64(count))
}

// ObserveSinkPage increments the sink page counter for the given outcome
// (created, updated, error).
func ObserveSinkPage(outcome string) {
	sinkPagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveRun records one pipeline run with its status and duration.
func ObserveRun(status string, elapsed time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(elapsed.Seconds())
}
