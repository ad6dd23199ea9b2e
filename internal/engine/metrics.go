package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the prometheus collectors exposed by a running engine
// instance. One Metrics is shared across all instrument engines in a
// process; labels carry the instrument/symbol.
type Metrics struct {
	OrdersAccepted *prometheus.CounterVec
	OrdersRejected *prometheus.CounterVec
	Fills          *prometheus.CounterVec
	BookDepth      *prometheus.GaugeVec
	Subscriptions  prometheus.Gauge
}

// NewMetrics registers and returns the standard collector set. Callers
// typically pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests to avoid collisions.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matching_core_orders_accepted_total",
			Help: "Number of orders accepted by the matching core.",
		}, []string{"instrument"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matching_core_orders_rejected_total",
			Help: "Number of orders rejected by the matching core.",
		}, []string{"instrument", "reason"}),
		Fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matching_core_fills_total",
			Help: "Number of fills (maker/taker pairs) produced.",
		}, []string{"instrument"}),
		BookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "matching_core_book_depth_levels",
			Help: "Current number of visible price levels per side.",
		}, []string{"instrument", "side"}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matching_core_subscriptions_active",
			Help: "Current number of active market data subscriptions.",
		}),
	}
	reg.MustRegister(m.OrdersAccepted, m.OrdersRejected, m.Fills, m.BookDepth, m.Subscriptions)
	return m
}
