package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
	outcomeFailed  = "failed"
)

var (
	// RunsTotal counts finished runs.
	// Labels: outcome (created, updated, failed)
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbsync",
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Total number of reconciliation runs by outcome",
		},
		[]string{"outcome"},
	)

	// StageFailures counts failed runs by the stage they stopped at.
	// Labels: stage, reason (not_found, conflict, already_exists, ...)
	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbsync",
			Subsystem: "reconcile",
			Name:      "stage_failures_total",
			Help:      "Total number of failed reconciliation runs by stage and reason",
		},
		[]string{"stage", "reason"},
	)

	// Matches counts locator decisions.
	// Labels: kind (none, exact, fuzzy)
	Matches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbsync",
			Subsystem: "reconcile",
			Name:      "matches_total",
			Help:      "Total number of article lookups by match kind",
		},
		[]string{"kind"},
	)

	// RunDuration tracks end-to-end run latency.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kbsync",
			Subsystem: "reconcile",
			Name:      "run_duration_seconds",
			Help:      "Duration of reconciliation runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
