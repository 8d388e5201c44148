// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cyclesTotal counts completed agent cycles.
	// Labels: strategy
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marvin",
		Subsystem: "agent",
		Name:      "cycles_total",
		Help:      "Total completed act/observe/update cycles",
	}, []string{"strategy"})

	// rewardTotal sums single-step rewards.
	// Labels: strategy
	rewardTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marvin",
		Subsystem: "agent",
		Name:      "reward_total",
		Help:      "Sum of rewards received from the environment",
	}, []string{"strategy"})

	// cycleDuration measures one full cycle including planning.
	// Labels: strategy
	cycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marvin",
		Subsystem: "agent",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time per agent cycle in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"strategy"})
)

// recordCycle records a completed cycle. Negative rewards are not added
// to the counter, which only accepts non-negative increments.
func recordCycle(strategy string, c Cycle) {
	cyclesTotal.WithLabelValues(strategy).Inc()
	if c.Reward > 0 {
		rewardTotal.WithLabelValues(strategy).Add(float64(c.Reward))
	}
	cycleDuration.WithLabelValues(strategy).Observe(c.Duration.Seconds())
}
