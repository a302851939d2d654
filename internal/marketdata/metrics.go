package marketdata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SnapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_marketdata_snapshots_total",
		Help: "Total chain snapshots fetched successfully",
	})

	SnapshotFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_marketdata_snapshot_failures_total",
		Help: "Total chain snapshot fetches that failed",
	})

	SnapshotDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "options_arb_marketdata_snapshot_duration_seconds",
		Help:    "Time to fetch and compose one chain snapshot",
		Buckets: prometheus.DefBuckets,
	})
)
