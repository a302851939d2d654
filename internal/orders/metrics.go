package orders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OrdersBuiltTotal tracks successfully constructed order requests.
	OrdersBuiltTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "options_arb_orders_built_total",
			Help: "Total number of order requests built",
		},
		[]string{"strategy"},
	)

	// OrdersFailedTotal tracks order constructions aborted, mostly for
	// missing contract ids.
	OrdersFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "options_arb_orders_failed_total",
			Help: "Total number of order constructions aborted",
		},
		[]string{"strategy"},
	)
)
