package arbiter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "snekheat",
		Subsystem: "arbiter",
		Name:      "decisions_total",
		Help:      "Moves returned, by the tier that produced them",
	}, []string{"tier"})

	tierErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "snekheat",
		Subsystem: "arbiter",
		Name:      "tier_errors_total",
		Help:      "Tier attempts that were skipped, by tier and reason",
	}, []string{"tier", "reason"})

	safetyOverridesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "snekheat",
		Subsystem: "arbiter",
		Name:      "safety_overrides_total",
		Help:      "Proposed moves replaced by the safety validator",
	})

	malformedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "snekheat",
		Subsystem: "arbiter",
		Name:      "malformed_snapshots_total",
		Help:      "Turns rejected before any tier ran",
	})

	decisionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "snekheat",
		Subsystem: "arbiter",
		Name:      "decision_seconds",
		Help:      "Wall time of one Decide call",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	})
)
