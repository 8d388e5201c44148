// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package environment

import (
	"fmt"

	"github.com/AleutianAI/marvin/services/aixi/random"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

// Coin faces. The action guessing a face and the observation reporting it
// share the same value.
const (
	Heads types.Observation = 0
	Tails types.Observation = 1
)

// FairTailsPercent is the tails probability of an unbiased coin.
const FairTailsPercent = 50

// CoinFlip is a repeated coin toss. Each action guesses the next toss and
// a correct guess earns reward 1, a wrong one 0.
//
// Thread Safety: Not safe for concurrent use.
type CoinFlip struct {
	random       random.Random
	tailsPercent uint64
	lastToss     types.Observation
	lastGuess    types.Observation
	guessed      bool
}

// NewCoinFlip creates a fair coin drawing tosses from r.
func NewCoinFlip(r random.Random) *CoinFlip {
	return &CoinFlip{random: r, tailsPercent: FairTailsPercent, lastToss: Tails}
}

// NewBiasedCoinFlip creates a coin landing tails with the given
// probability in percent.
//
// Outputs:
//   - *CoinFlip: The environment.
//   - error: Non-nil if tailsPercent exceeds 100.
func NewBiasedCoinFlip(r random.Random, tailsPercent int) (*CoinFlip, error) {
	if tailsPercent < 0 || tailsPercent > 100 {
		return nil, fmt.Errorf("tails percent %d outside [0, 100]", tailsPercent)
	}
	c := NewCoinFlip(r)
	c.tailsPercent = uint64(tailsPercent)
	return c, nil
}

// Info implements Environment.
func (c *CoinFlip) Info() types.EnvironmentInfo {
	return types.NewEnvironmentInfo(2, 2, 0, 1)
}

// Observation implements Environment. It is the face of the last toss.
func (c *CoinFlip) Observation() types.Observation {
	return c.lastToss
}

// Reward implements Environment.
func (c *CoinFlip) Reward() (types.SingleReward, error) {
	if !c.guessed {
		return 0, ErrNoActionYet
	}
	if c.lastGuess == c.lastToss {
		return 1, nil
	}
	return 0, nil
}

// Update implements Environment. It records the guess and tosses the coin.
func (c *CoinFlip) Update(action types.Action) error {
	info := c.Info()
	if !info.ValidAction(action) {
		return fmt.Errorf("%w: %d, num_actions=%d", ErrInvalidAction, action, info.NumActions())
	}
	c.lastGuess = types.Observation(action)
	c.guessed = true
	c.lastToss = c.toss()
	return nil
}

func (c *CoinFlip) toss() types.Observation {
	if c.tailsPercent == FairTailsPercent {
		return types.Observation(c.random.NextModulo(2))
	}
	if c.random.NextModulo(100) < c.tailsPercent {
		return Tails
	}
	return Heads
}

var _ Environment = (*CoinFlip)(nil)
