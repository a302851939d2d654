package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// ContendersDetectedTotal tracks emitted candidates by strategy.
	ContendersDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "options_arb_contenders_detected_total",
			Help: "Total number of spread contenders detected",
		},
		[]string{"strategy"},
	)

	// LookupErrorsTotal tracks quotes missing for enumerated strikes.
	LookupErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "options_arb_scan_lookup_errors_total",
			Help: "Total number of candidates skipped because a quote was missing",
		},
		[]string{"strategy"},
	)

	// ScanDurationSeconds tracks per-strategy scan latency.
	ScanDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "options_arb_scan_duration_seconds",
			Help:    "Duration of one strategy scan over a snapshot",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)
)
