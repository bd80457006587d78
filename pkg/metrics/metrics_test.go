package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestWebhookMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)
	m.Observe("user.created", "created", 250*time.Millisecond)
	m.Observe("user.created", "conflict", 10*time.Millisecond)
	m.Observe("", "rejected", time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "webhook_events_total", map[string]string{"type": "user.created", "outcome": "created"}); err != nil {
		t.Fatalf("fetch created: %v", err)
	} else if got != 1 {
		t.Fatalf("expected created=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "webhook_events_total", map[string]string{"type": "unknown", "outcome": "rejected"}); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejected=1, got %f", got)
	}
	if mf := findMetricFamily(mfs, "webhook_duration_seconds"); mf == nil || len(mf.GetMetric()) != 3 {
		t.Fatalf("expected a duration series per outcome")
	}
}

func TestGuardMetricsCountsDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGuardMetrics(reg)
	m.IncDecision("redirect", "admin_prefix")
	m.IncDecision("redirect", "admin_prefix")
	m.IncDecision("allow", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "route_guard_decisions_total", map[string]string{"action": "redirect", "rule": "admin_prefix"}); err != nil {
		t.Fatalf("fetch redirect: %v", err)
	} else if got != 2 {
		t.Fatalf("expected redirect=2, got %f", got)
	}
	if _, err := fetchCounterValue(mfs, "route_guard_decisions_total", map[string]string{"action": "allow", "rule": "unknown"}); err != nil {
		t.Fatalf("fetch allow: %v", err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewWebhookMetrics(nil).Observe("user.created", "created", time.Second)
	NewGuardMetrics(nil).IncDecision("allow", "passthrough")
	var m *GuardMetrics
	m.IncDecision("allow", "passthrough")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
