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
	"fmt"
	"time"
)

// PlannerConfig contains Monte Carlo planner settings.
type PlannerConfig struct {
	// Horizon is how many action/percept cycles each rollout looks ahead.
	Horizon int `json:"horizon" yaml:"horizon"`

	// Rollouts is the number of simulations per decision.
	Rollouts int `json:"rollouts" yaml:"rollouts"`

	// TimeLimit stops planning early once elapsed. Zero disables it.
	TimeLimit time.Duration `json:"time_limit" yaml:"time_limit"`

	// ExplorationConstant is the UCB1 exploration weight C.
	ExplorationConstant float64 `json:"exploration_constant" yaml:"exploration_constant"`

	// MinVisits is how often every action is tried before UCB1 applies.
	MinVisits int `json:"min_visits" yaml:"min_visits"`

	// TracingEnabled emits an OpenTelemetry span per decision.
	TracingEnabled bool `json:"tracing_enabled" yaml:"tracing_enabled"`
}

// DefaultPlannerConfig returns sensible defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		Horizon:             5,
		Rollouts:            300,
		TimeLimit:           0,
		ExplorationConstant: 0.2,
		MinVisits:           1,
		TracingEnabled:      false,
	}
}

// Validate checks the configuration for errors.
func (c PlannerConfig) Validate() error {
	if c.Horizon < 1 {
		return fmt.Errorf("%w: horizon must be >= 1", ErrInvalidConfig)
	}
	if c.Rollouts < 1 {
		return fmt.Errorf("%w: rollouts must be >= 1", ErrInvalidConfig)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("%w: time_limit must be >= 0", ErrInvalidConfig)
	}
	if c.ExplorationConstant < 0 {
		return fmt.Errorf("%w: exploration_constant must be >= 0", ErrInvalidConfig)
	}
	if c.MinVisits < 1 {
		return fmt.Errorf("%w: min_visits must be >= 1", ErrInvalidConfig)
	}
	return nil
}
