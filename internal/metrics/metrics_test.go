package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRegisterAttachesEveryCollector(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	m.Register(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one metric family after registering with no observations yet")
	}
}

func TestObservePollOutcomeIncrementsLabeledCounters(t *testing.T) {
	m := New()
	m.ObservePollOutcome("task-1", false, 0.25)
	m.ObservePollOutcome("task-1", true, 0.5)

	if got := counterValue(t, m.PollerPollsTotal.WithLabelValues("task-1", "success")); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := counterValue(t, m.PollerPollsTotal.WithLabelValues("task-1", "failure")); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}
}

func TestObservePolicyOutcomeAndFlush(t *testing.T) {
	m := New()
	m.ObservePolicyOutcome("success")
	m.ObservePolicyOutcome("success")
	m.ObservePolicyOutcome("compliance_failure")
	m.ObservePolicyFlush("flushed")

	if got := counterValue(t, m.PolicyRuleOutcomesTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("expected 2 success outcomes, got %v", got)
	}
	if got := counterValue(t, m.PolicyRuleOutcomesTotal.WithLabelValues("compliance_failure")); got != 1 {
		t.Errorf("expected 1 compliance_failure outcome, got %v", got)
	}
	if got := counterValue(t, m.PolicyFlushesTotal.WithLabelValues("flushed")); got != 1 {
		t.Errorf("expected 1 flush, got %v", got)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return m.GetCounter().GetValue()
}
