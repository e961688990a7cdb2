package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	ordersTotal      *prometheus.CounterVec
	tradesTotal      *prometheus.CounterVec
	wsSubscribers    prometheus.Gauge
	droppedBroadcast prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		ordersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "limitbook",
			Subsystem: "feed",
			Name:      "orders_total",
			Help:      "Order requests received, by operation and symbol.",
		}, []string{"op", "symbol"}),
		tradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "limitbook",
			Subsystem: "feed",
			Name:      "trades_total",
			Help:      "Trades produced by order requests, by symbol.",
		}, []string{"symbol"}),
		wsSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "limitbook",
			Subsystem: "feed",
			Name:      "ws_subscribers",
			Help:      "Currently connected depth stream subscribers.",
		}),
		droppedBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "limitbook",
			Subsystem: "feed",
			Name:      "dropped_broadcasts_total",
			Help:      "Depth snapshots dropped for slow subscribers.",
		}),
	}
	reg.MustRegister(m.ordersTotal, m.tradesTotal, m.wsSubscribers, m.droppedBroadcast)
	return m
}
