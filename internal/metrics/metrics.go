// Package metrics provides Prometheus metrics for blogfeed.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// GenerationsTotal counts feed generations by outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogfeed",
			Name:      "generations_total",
			Help:      "Total number of feed generations",
		},
		[]string{"status"},
	)

	// GenerationDuration measures how long a single generation takes.
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blogfeed",
			Name:      "generation_duration_seconds",
			Help:      "Duration of feed generation in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ItemsEmitted observes how many items each feed carried.
	ItemsEmitted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blogfeed",
			Name:      "items_emitted",
			Help:      "Distribution of items per generated feed",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	// ItemsSkippedTotal counts posts that failed item construction.
	ItemsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blogfeed",
			Name:      "items_skipped_total",
			Help:      "Total number of posts skipped during item construction",
		},
	)

	// SourceErrorsTotal counts failures to load posts by source kind.
	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blogfeed",
			Name:      "source_errors_total",
			Help:      "Total number of post source failures",
		},
		[]string{"source"},
	)
)

// Recorder adapts the package-level collectors to the generator's recorder interface.
type Recorder struct{}

// RecordGeneration records one finished generation.
func (Recorder) RecordGeneration(status string, items, skipped int, duration time.Duration) {
	GenerationsTotal.WithLabelValues(status).Inc()
	GenerationDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		ItemsEmitted.Observe(float64(items))
	}
	ItemsSkippedTotal.Add(float64(skipped))
}

// RecordSourceError records a failed post listing.
func RecordSourceError(source string) {
	SourceErrorsTotal.WithLabelValues(source).Inc()
}
