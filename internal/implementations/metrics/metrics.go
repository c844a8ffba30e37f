package metrics

import (
	"setpass/internal/core/domain/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

type Prometheus struct {
	outcomes *prometheus.CounterVec
}

func NewPrometheus(registerer prometheus.Registerer) *Prometheus {
	if registerer == nil {
		panic("Argument registerer must not be nil.")
	}
	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "setpass",
			Name:      "operations_total",
			Help:      "Number of token operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	registerer.MustRegister(outcomes)
	return &Prometheus{outcomes: outcomes}
}

func (p *Prometheus) Observe(operation string, outcome metrics.Outcome) {
	p.outcomes.WithLabelValues(operation, string(outcome)).Inc()
}
