package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	askRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askblob_ask_requests_total",
			Help: "Total number of ask submissions by outcome.",
		},
		[]string{"outcome"},
	)
	askDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askblob_ask_duration_seconds",
			Help:    "End-to-end ask latency including both external calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 45},
		},
	)
	askRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askblob_ask_rows_returned",
			Help:    "Row count of normalized result tables.",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		},
	)
	generationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askblob_generation_failures_total",
			Help: "Total number of failed query-generation calls.",
		},
	)
	easterEggsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askblob_easter_eggs_total",
			Help: "Total number of prompts answered by the easter egg.",
		},
	)
	datasetSwitchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askblob_dataset_switches_total",
			Help: "Total number of dataset switches across sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		askRequestsTotal,
		askDurationSeconds,
		askRowsReturned,
		generationFailuresTotal,
		easterEggsTotal,
		datasetSwitchesTotal,
	)
}

func ObserveAsk(outcome string, rows int, elapsed time.Duration) {
	askRequestsTotal.WithLabelValues(outcome).Inc()
	askDurationSeconds.Observe(elapsed.Seconds())
	if rows >= 0 {
		askRowsReturned.Observe(float64(rows))
	}
}

func IncrementGenerationFailure() {
	generationFailuresTotal.Inc()
}

func IncrementEasterEgg() {
	easterEggsTotal.Inc()
}

func IncrementDatasetSwitch() {
	datasetSwitchesTotal.Inc()
}
