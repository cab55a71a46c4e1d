// Package metrics provides Prometheus metrics for the listing service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Load metrics
	LoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifieds_loads_total",
			Help: "Listing feed loads by source and outcome",
		},
		[]string{"source", "status"},
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifieds_load_duration_seconds",
			Help:    "Time taken to fetch and decode the listing feed",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ListingsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classifieds_listings_loaded",
			Help: "Listings in the current snapshot",
		},
	)

	ListingsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classifieds_listings_dropped_total",
			Help: "Feed records rejected by validation",
		},
	)

	// Render metrics
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifieds_renders_total",
			Help: "Rendered views by kind",
		},
		[]string{"view"},
	)

	FilterResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classifieds_filter_results",
			Help:    "Listings matching each filter request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)
)

// Load statuses.
const (
	StatusOK    = "ok"
	StatusFetch = "fetch_error"
	StatusParse = "parse_error"
)

// RecordLoad records one load attempt.
func RecordLoad(source, status string, duration time.Duration, listings, dropped int) {
	LoadsTotal.WithLabelValues(source, status).Inc()
	LoadDuration.WithLabelValues(source).Observe(duration.Seconds())
	if status == StatusOK {
		ListingsLoaded.Set(float64(listings))
		ListingsDropped.Add(float64(dropped))
	}
}

// RecordRender records a rendered view and its result count.
func RecordRender(view string, count int) {
	RendersTotal.WithLabelValues(view).Inc()
	FilterResults.Observe(float64(count))
}
