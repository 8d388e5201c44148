// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explorer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Planning
// =============================================================================

var (
	// decisionsTotal counts Explore calls.
	// Labels: strategy (mcts, random), status (success, error)
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marvin",
		Subsystem: "explorer",
		Name:      "decisions_total",
		Help:      "Total action decisions by strategy and status",
	}, []string{"strategy", "status"})

	// rolloutsPerDecision tracks how many rollouts each decision used.
	rolloutsPerDecision = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marvin",
		Subsystem: "explorer",
		Name:      "rollouts_per_decision",
		Help:      "Distribution of rollouts completed per planning decision",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// decisionLatency measures planning wall time.
	decisionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marvin",
		Subsystem: "explorer",
		Name:      "decision_latency_seconds",
		Help:      "Planning time per decision in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// budgetExhaustions counts which limit ended planning.
	// Labels: reason (rollouts, time, context)
	budgetExhaustions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marvin",
		Subsystem: "explorer",
		Name:      "budget_exhaustions_total",
		Help:      "Planning budget exhaustions by limiting reason",
	}, []string{"reason"})
)

// recordDecision records one Explore call.
func recordDecision(strategy, status string) {
	decisionsTotal.WithLabelValues(strategy, status).Inc()
}

// recordRollouts records the budget usage of a finished decision.
//
// Inputs:
//
//	rollouts - Completed rollouts.
//	exhaustedBy - Limit that stopped planning.
//	elapsed - Planning wall time.
func recordRollouts(rollouts int64, exhaustedBy string, elapsed time.Duration) {
	rolloutsPerDecision.Observe(float64(rollouts))
	decisionLatency.Observe(elapsed.Seconds())
	if exhaustedBy != "" {
		budgetExhaustions.WithLabelValues(exhaustedBy).Inc()
	}
}
