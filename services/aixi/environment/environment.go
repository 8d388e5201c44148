// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package environment defines worlds an agent can act in.
package environment

import (
	"errors"

	"github.com/AleutianAI/marvin/services/aixi/types"
)

// Sentinel errors for the environment package.
var (
	ErrNoActionYet   = errors.New("environment has not received an action yet")
	ErrInvalidAction = errors.New("action outside the advertised range")
)

// Environment is a world that answers each action with a percept.
//
// Observation and Reward describe the outcome of the most recent Update.
type Environment interface {
	Info() types.EnvironmentInfo
	Observation() types.Observation
	Reward() (types.SingleReward, error)
	Update(action types.Action) error
}
