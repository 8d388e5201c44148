// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package types holds the small value types shared by the agent, the
// predictor-driven planner and the environments.
package types

import "fmt"

// Action is an agent action in [0, NumActions).
type Action int16

// Observation is an environment observation in [0, NumObservations).
type Observation int16

// SingleReward is the reward of a single environment step.
type SingleReward int16

// Percept is what the environment returns after an action.
type Percept struct {
	Observation Observation
	Reward      SingleReward
}

// String renders the percept for logs.
func (p Percept) String() string {
	return fmt.Sprintf("(obs=%d, reward=%d)", p.Observation, p.Reward)
}

// Reward is a cumulative, possibly averaged, reward.
type Reward float64

// Add returns r + other.
func (r Reward) Add(other Reward) Reward {
	return r + other
}

// AddSingle returns r + s.
func (r Reward) AddSingle(s SingleReward) Reward {
	return r + Reward(s)
}

// Div returns r / d.
func (r Reward) Div(d float64) Reward {
	return Reward(float64(r) / d)
}

// EnvironmentInfo describes what an agent knows a priori about an
// environment: how many actions exist, how many observations can occur,
// and the inclusive bounds of a single-step reward.
//
// Thread Safety: Immutable value, safe to share.
type EnvironmentInfo struct {
	numActions      int16
	numObservations int16
	minReward       SingleReward
	maxReward       SingleReward
}

// NewEnvironmentInfo creates an EnvironmentInfo.
func NewEnvironmentInfo(numActions, numObservations int16, minReward, maxReward SingleReward) EnvironmentInfo {
	return EnvironmentInfo{
		numActions:      numActions,
		numObservations: numObservations,
		minReward:       minReward,
		maxReward:       maxReward,
	}
}

func (i EnvironmentInfo) NumActions() int16         { return i.numActions }
func (i EnvironmentInfo) NumObservations() int16    { return i.numObservations }
func (i EnvironmentInfo) MinReward() SingleReward   { return i.minReward }
func (i EnvironmentInfo) MaxReward() SingleReward   { return i.maxReward }
func (i EnvironmentInfo) RewardRange() SingleReward { return i.maxReward - i.minReward }

// ValidAction reports whether a is in [0, NumActions).
func (i EnvironmentInfo) ValidAction(a Action) bool {
	return a >= 0 && int16(a) < i.numActions
}
