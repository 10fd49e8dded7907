// Package metrics holds the Prometheus collectors exported by the poller,
// the SNMP connection pool, and the policy executor, grouped the way the
// teacher's own eBPF metrics package groups its counters/gauges by
// subsystem.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector this module exports.
type Metrics struct {
	// Pool metrics (internal/snmp.SessionManager).
	PoolPermitsInUse   prometheus.Gauge
	PoolPermitsMax     prometheus.Gauge
	PoolActiveSessions prometheus.Gauge
	PoolExhaustedTotal prometheus.Counter

	// Poller metrics (internal/poller.Scheduler).
	PollerTasksTotal        prometheus.Gauge
	PollerTaskFailures      *prometheus.GaugeVec
	PollerPollsTotal        *prometheus.CounterVec
	PollerPollDuration      *prometheus.HistogramVec

	// Policy execution metrics (internal/policy/exec).
	PolicyRuleOutcomesTotal *prometheus.CounterVec
	PolicyFlushesTotal      *prometheus.CounterVec
}

// New builds an unregistered Metrics. Call Register to attach it to a
// prometheus.Registerer.
func New() *Metrics {
	return &Metrics{
		PoolPermitsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netfleet_pool_permits_in_use",
			Help: "Number of SNMP connection pool permits currently held.",
		}),
		PoolPermitsMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netfleet_pool_permits_max",
			Help: "Configured maximum number of concurrent SNMP connections.",
		}),
		PoolActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netfleet_pool_active_sessions",
			Help: "Number of live per-target SNMP sessions held by the pool.",
		}),
		PoolExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "netfleet_pool_exhausted_total",
			Help: "Total number of requests that failed because the connection pool was exhausted.",
		}),

		PollerTasksTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netfleet_poller_tasks_total",
			Help: "Number of polling tasks currently registered with the scheduler.",
		}),
		PollerTaskFailures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "netfleet_poller_task_consecutive_failures",
			Help: "Consecutive poll failures for a task.",
		}, []string{"task_id"}),
		PollerPollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netfleet_poller_polls_total",
			Help: "Total poll attempts, labeled by outcome.",
		}, []string{"task_id", "outcome"}),
		PollerPollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "netfleet_poller_poll_duration_seconds",
			Help:    "Duration of a single poll attempt.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task_id"}),

		PolicyRuleOutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netfleet_policy_rule_outcomes_total",
			Help: "Policy rule evaluation outcomes, labeled by outcome kind.",
		}, []string{"outcome"}),
		PolicyFlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "netfleet_policy_flushes_total",
			Help: "Policy transaction flush attempts, labeled by result.",
		}, []string{"result"}),
	}
}

// Register attaches every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.PoolPermitsInUse,
		m.PoolPermitsMax,
		m.PoolActiveSessions,
		m.PoolExhaustedTotal,
		m.PollerTasksTotal,
		m.PollerTaskFailures,
		m.PollerPollsTotal,
		m.PollerPollDuration,
		m.PolicyRuleOutcomesTotal,
		m.PolicyFlushesTotal,
	)
}

// ObservePollOutcome records one poll attempt's outcome and duration.
func (m *Metrics) ObservePollOutcome(taskID string, failed bool, durationSeconds float64) {
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	m.PollerPollsTotal.WithLabelValues(taskID, outcome).Inc()
	m.PollerPollDuration.WithLabelValues(taskID).Observe(durationSeconds)
}

// ObservePolicyOutcome increments the rule-outcome counter for one
// dispatched action result.
func (m *Metrics) ObservePolicyOutcome(outcome string) {
	m.PolicyRuleOutcomesTotal.WithLabelValues(outcome).Inc()
}

// ObservePolicyFlush records whether a transaction's flush committed,
// rolled back, or was skipped (no Set staged).
func (m *Metrics) ObservePolicyFlush(result string) {
	m.PolicyFlushesTotal.WithLabelValues(result).Inc()
}
