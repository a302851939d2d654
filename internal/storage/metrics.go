package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	OrdersRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_orders_recorded_total",
		Help: "Total number of submitted orders persisted",
	})

	OrderWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_order_write_errors_total",
		Help: "Total number of failed order persistence attempts",
	})
)
