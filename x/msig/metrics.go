package msig

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quorum",
			Subsystem: "msig",
			Name:      "signals_total",
			Help:      "Number of emitted wallet signals.",
		},
		[]string{"action"},
	)
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quorum",
			Subsystem: "msig",
			Name:      "executions_total",
			Help:      "Number of transaction execution attempts by result.",
		},
		[]string{"result"},
	)
)

func countSignal(action string) {
	signalsTotal.WithLabelValues(action).Inc()
}
