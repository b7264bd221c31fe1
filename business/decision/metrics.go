package decision

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DecisionsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_decisions_emitted_total",
			Help: "Count of decisions written to the decision log by kind.",
		},
		[]string{"kind"},
	)

	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_cycles_total",
			Help: "Count of decision cycles by trigger and outcome.",
		},
		[]string{"trigger", "status"},
	)

	StepFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_step_failures_total",
			Help: "Count of contained failures by cycle step.",
		},
		[]string{"step"},
	)
)

func init() {
	prometheus.MustRegister(DecisionsEmittedTotal, CyclesTotal, StepFailuresTotal)
}

// triggerLabel keeps metric cardinality bounded for free-form triggers.
func triggerLabel(t string) string {
	switch t {
	case "SALE", "CRON", "MANUAL":
		return t
	default:
		return "OTHER"
	}
}
