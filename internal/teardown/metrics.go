package teardown

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcctl",
			Subsystem: "teardown",
			Name:      "runs_total",
			Help:      "Total number of teardown runs by outcome",
		},
		[]string{"outcome"},
	)

	phasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcctl",
			Subsystem: "teardown",
			Name:      "phases_total",
			Help:      "Total number of phase executions by phase and status",
		},
		[]string{"phase", "status"},
	)

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arcctl",
			Subsystem: "teardown",
			Name:      "phase_duration_seconds",
			Help:      "Duration of teardown phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"phase"},
	)

	resourceOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arcctl",
			Subsystem: "teardown",
			Name:      "resource_operations_total",
			Help:      "Total number of resource operations by phase and result",
		},
		[]string{"phase", "result"},
	)

	fallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "arcctl",
			Subsystem: "teardown",
			Name:      "fallback_total",
			Help:      "Total number of emergency fallback activations",
		},
	)

	orphansGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "arcctl",
			Subsystem: "teardown",
			Name:      "orphans",
			Help:      "Number of orphaned resources found by the last verification",
		},
	)
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		phasesTotal,
		phaseDuration,
		resourceOpsTotal,
		fallbackTotal,
		orphansGauge,
	)
}

// recordPhaseMetric records one phase execution.
func recordPhaseMetric(phase string, status PhaseStatus, seconds float64) {
	phasesTotal.WithLabelValues(phase, string(status)).Inc()
	phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// recordResourceOpMetric records a resource operation result.
func recordResourceOpMetric(phase, result string) {
	resourceOpsTotal.WithLabelValues(phase, result).Inc()
}

// recordRunMetric records a completed run.
func recordRunMetric(outcome Outcome, orphans int) {
	runsTotal.WithLabelValues(string(outcome)).Inc()
	orphansGauge.Set(float64(orphans))
}

// recordFallbackMetric records an emergency fallback activation.
func recordFallbackMetric() {
	fallbackTotal.Inc()
}
