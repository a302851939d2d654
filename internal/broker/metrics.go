package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PortfolioValueGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "options_arb_broker_portfolio_value",
		Help: "Last fetched account net liquidation value",
	})

	ConidsResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_broker_conids_resolved_total",
		Help: "Total contract ids resolved from the gateway or cache",
	})

	ConidCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_broker_conid_cache_hits_total",
		Help: "Contract id lookups served entirely from cache",
	})

	OrdersSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_broker_orders_submitted_total",
		Help: "Total orders submitted to the gateway",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_broker_orders_cancelled_total",
		Help: "Total working orders cancelled",
	})

	OrderSubmitFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_broker_order_submit_failures_total",
		Help: "Total failed order submission attempts",
	})
)
