package metrics

import "github.com/prometheus/client_golang/prometheus"

// GuardMetrics counts route guard decisions.
type GuardMetrics struct {
	decisions *prometheus.CounterVec
}

func NewGuardMetrics(reg prometheus.Registerer) *GuardMetrics {
	if reg == nil {
		return &GuardMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route_guard_decisions_total",
		Help: "Route guard decisions by action and matched rule.",
	}, []string{"action", "rule"})
	reg.MustRegister(decisions)
	return &GuardMetrics{decisions: decisions}
}

func (m *GuardMetrics) IncDecision(action, rule string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(action), normalizeLabel(rule)).Inc()
}
