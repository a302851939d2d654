package equitybreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BreakerEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "options_arb_equity_breaker_enabled",
		Help: "Whether order submission is enabled (1) or tripped (0)",
	})

	BreakerLastEquity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "options_arb_equity_breaker_last_equity",
		Help: "Last observed account net liquidation value",
	})

	BreakerDisableThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "options_arb_equity_breaker_disable_threshold",
		Help: "Equity level below which submission is disabled",
	})

	BreakerEnableThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "options_arb_equity_breaker_enable_threshold",
		Help: "Equity level above which submission is re-enabled",
	})

	BreakerAvgNotional = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "options_arb_equity_breaker_avg_notional",
		Help: "Average notional of recently submitted orders",
	})

	BreakerTripsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "options_arb_equity_breaker_trips_total",
		Help: "Total number of times the breaker tripped",
	})
)
