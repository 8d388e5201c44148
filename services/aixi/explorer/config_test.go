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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlannerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PlannerConfig)
		wantErr bool
	}{
		{"defaults", func(*PlannerConfig) {}, false},
		{"zero horizon", func(c *PlannerConfig) { c.Horizon = 0 }, true},
		{"zero rollouts", func(c *PlannerConfig) { c.Rollouts = 0 }, true},
		{"negative time limit", func(c *PlannerConfig) { c.TimeLimit = -time.Second }, true},
		{"negative exploration", func(c *PlannerConfig) { c.ExplorationConstant = -0.1 }, true},
		{"zero exploration allowed", func(c *PlannerConfig) { c.ExplorationConstant = 0 }, false},
		{"zero min visits", func(c *PlannerConfig) { c.MinVisits = 0 }, true},
		{"time limit set", func(c *PlannerConfig) { c.TimeLimit = time.Second }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPlannerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultPlannerConfig(t *testing.T) {
	cfg := DefaultPlannerConfig()
	assert.Equal(t, 0.2, cfg.ExplorationConstant)
	assert.Equal(t, 1, cfg.MinVisits)
	assert.Zero(t, cfg.TimeLimit)
}
