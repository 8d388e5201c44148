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
	"context"
	"fmt"

	"github.com/AleutianAI/marvin/services/aixi/random"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

// StrategyRandom labels metrics produced by RandomExplorer.
const StrategyRandom = "random"

// RandomExplorer picks a uniformly random legal action.
type RandomExplorer struct {
	random random.Random
}

// NewRandomExplorer creates a RandomExplorer drawing from r.
func NewRandomExplorer(r random.Random) (*RandomExplorer, error) {
	if r == nil {
		return nil, ErrNilRandom
	}
	return &RandomExplorer{random: r}, nil
}

// Explore implements Explorer.
func (e *RandomExplorer) Explore(_ context.Context, info types.EnvironmentInfo) (types.Action, error) {
	if info.NumActions() < 1 {
		recordDecision(StrategyRandom, "error")
		return 0, fmt.Errorf("%w: num_actions=%d", ErrNoActions, info.NumActions())
	}
	recordDecision(StrategyRandom, "success")
	return types.Action(e.random.NextModulo(uint64(info.NumActions()))), nil
}

var _ Explorer = (*RandomExplorer)(nil)
