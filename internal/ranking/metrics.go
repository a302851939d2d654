package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RankedContendersTotal tracks contenders surviving rank truncation.
	RankedContendersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_ranked_contenders_total",
		Help: "Total number of contenders selected after ranking",
	})
)
