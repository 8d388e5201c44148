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

import "errors"

// Sentinel errors for the explorer package.
var (
	// Environment errors
	ErrNoActions = errors.New("environment offers no actions")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid planner config")
	ErrNilPredictor  = errors.New("predictor must not be nil")
	ErrNilRandom     = errors.New("random source must not be nil")

	// Budget errors
	ErrRolloutLimitReached = errors.New("planner rollout limit reached")
	ErrTimeLimitExceeded   = errors.New("planner time limit exceeded")
)
