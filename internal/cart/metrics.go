package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart mutations by operation and outcome (applied, noop, failed)",
		},
		[]string{"op", "result"},
	)

	openSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cart_open_sessions",
		Help: "Cart stores currently held in memory",
	})
)
