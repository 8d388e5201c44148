// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package explorer chooses the agent's next action.
//
// The main implementation is MonteCarloExplorer, which grows an
// expectimax search tree by sampling imagined futures from the agent's
// predictor and selects actions inside the tree with UCB1. RandomExplorer
// picks uniformly and serves as a baseline.
package explorer

import (
	"context"

	"github.com/AleutianAI/marvin/services/aixi/types"
)

// Explorer decides on one action.
//
// Explore returns an action in [0, info.NumActions()). Implementations that
// consult a predictor must leave its committed state unchanged.
type Explorer interface {
	Explore(ctx context.Context, info types.EnvironmentInfo) (types.Action, error)
}
