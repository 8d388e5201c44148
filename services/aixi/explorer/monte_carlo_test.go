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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/marvin/pkg/bitstring"
	"github.com/AleutianAI/marvin/services/aixi/predictor"
	"github.com/AleutianAI/marvin/services/aixi/random"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

var coinFlipInfo = types.NewEnvironmentInfo(2, 2, 0, 1)

func testConfig(rollouts int) PlannerConfig {
	cfg := DefaultPlannerConfig()
	cfg.Rollouts = rollouts
	cfg.Horizon = 3
	return cfg
}

func newSearch(p predictor.Predictor, r random.Random, info types.EnvironmentInfo) *search {
	return &search{
		predictor: p,
		random:    r,
		codec:     types.NewPerceptCodec(info),
		info:      info,
		c:         0.2,
		minVisits: 1,
	}
}

func TestNewMonteCarloExplorer_Validation(t *testing.T) {
	_, err := NewMonteCarloExplorer(nil, random.Fixed{}, DefaultPlannerConfig())
	assert.ErrorIs(t, err, ErrNilPredictor)

	_, err = NewMonteCarloExplorer(&uniformPredictor{}, nil, DefaultPlannerConfig())
	assert.ErrorIs(t, err, ErrNilRandom)

	cfg := DefaultPlannerConfig()
	cfg.Rollouts = 0
	_, err = NewMonteCarloExplorer(&uniformPredictor{}, random.Fixed{}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestExplore_NoActions(t *testing.T) {
	e, err := NewMonteCarloExplorer(&uniformPredictor{}, random.Fixed{}, testConfig(5))
	require.NoError(t, err)

	_, err = e.Explore(context.Background(), types.NewEnvironmentInfo(0, 1, 0, 1))
	assert.ErrorIs(t, err, ErrNoActions)
}

func TestExplore_ActionInRange(t *testing.T) {
	for _, n := range []int16{1, 2, 3, 7} {
		info := types.NewEnvironmentInfo(n, 3, -1, 2)
		e, err := NewMonteCarloExplorer(&uniformPredictor{}, random.NewSource(uint64(n)), testConfig(50))
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			a, err := e.Explore(context.Background(), info)
			require.NoError(t, err)
			assert.True(t, info.ValidAction(a), "action %d with %d actions", a, n)
		}
	}
}

func TestExplore_LeavesPredictorUnchanged(t *testing.T) {
	tree, err := predictor.NewContextTree(4)
	require.NoError(t, err)
	tree.Update(bitstring.MustFromString("0110100110"))
	logP := tree.LogBlockProbability()
	history := tree.History().String()

	e, err := NewMonteCarloExplorer(tree, random.NewSource(7), testConfig(100))
	require.NoError(t, err)
	_, err = e.Explore(context.Background(), coinFlipInfo)
	require.NoError(t, err)

	assert.Equal(t, logP, tree.LogBlockProbability())
	assert.Equal(t, history, tree.History().String())
}

func TestExplore_Deterministic(t *testing.T) {
	run := func() []types.Action {
		tree, err := predictor.NewContextTree(3)
		require.NoError(t, err)
		tree.Update(bitstring.MustFromString("101101"))

		e, err := NewMonteCarloExplorer(tree, random.NewSource(5761567), testConfig(64))
		require.NoError(t, err)

		var out []types.Action
		for i := 0; i < 5; i++ {
			a, err := e.Explore(context.Background(), coinFlipInfo)
			require.NoError(t, err)
			out = append(out, a)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestExplore_PrefersRewardedAction(t *testing.T) {
	e, err := NewMonteCarloExplorer(&echoPredictor{}, random.NewSource(3), testConfig(200))
	require.NoError(t, err)

	a, err := e.Explore(context.Background(), coinFlipInfo)
	require.NoError(t, err)
	assert.Equal(t, types.Action(1), a)
}

func TestExplore_RevertsAfterEveryRollout(t *testing.T) {
	p := &uniformPredictor{size: 12}
	e, err := NewMonteCarloExplorer(p, random.NewSource(1), testConfig(25))
	require.NoError(t, err)

	_, err = e.Explore(context.Background(), coinFlipInfo)
	require.NoError(t, err)
	assert.Equal(t, 12, p.HistorySize())
	assert.Equal(t, 25, p.reverts)
}

func TestExplore_CancelledContextRunsOneRollout(t *testing.T) {
	p := &uniformPredictor{}
	e, err := NewMonteCarloExplorer(p, random.NewSource(1), testConfig(1000))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := e.Explore(ctx, coinFlipInfo)
	require.NoError(t, err)
	assert.True(t, coinFlipInfo.ValidAction(a))
	assert.Equal(t, 1, p.reverts)
}

func TestExplore_TimeLimit(t *testing.T) {
	base := time.Unix(0, 0)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}

	cfg := testConfig(1000)
	cfg.TimeLimit = 5 * time.Second
	p := &uniformPredictor{}
	e, err := NewMonteCarloExplorer(p, random.NewSource(1), cfg, withClock(clock))
	require.NoError(t, err)

	_, err = e.Explore(context.Background(), coinFlipInfo)
	require.NoError(t, err)
	assert.Less(t, p.reverts, 1000)
	assert.GreaterOrEqual(t, p.reverts, 1)
}

func TestSampleAction_MandatoryVisitsFirst(t *testing.T) {
	info := types.NewEnvironmentInfo(4, 2, 0, 1)
	s := newSearch(&uniformPredictor{}, random.NewSource(11), info)
	root := newActionNode()

	for i := 0; i < 4; i++ {
		_, err := s.sampleAction(root, 1)
		require.NoError(t, err)
		require.NoError(t, s.predictor.RevertToHistorySize(0))
	}

	require.Len(t, root.children, 4)
	for a := types.Action(0); a < 4; a++ {
		assert.Equal(t, uint64(1), root.visitsOf(a), "action %d", a)
	}
	assert.Equal(t, uint64(4), root.visits)
}

func TestSampleAction_ZeroHorizon(t *testing.T) {
	s := newSearch(&uniformPredictor{}, random.Fixed{}, coinFlipInfo)
	root := newActionNode()

	ret, err := s.sampleAction(root, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ret)
	assert.Equal(t, uint64(0), root.visits)
}

func TestSampleAction_ReturnWithinBounds(t *testing.T) {
	info := types.NewEnvironmentInfo(3, 4, -2, 5)
	s := newSearch(&uniformPredictor{}, random.NewSource(2), info)
	root := newActionNode()

	for i := 0; i < 50; i++ {
		ret, err := s.sampleAction(root, 4)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ret, -8.0)
		assert.LessOrEqual(t, ret, 20.0)
	}
}

func TestSelectAction_TieBrokenByRandom(t *testing.T) {
	root := newActionNode()
	for a := types.Action(0); a < 2; a++ {
		c := root.child(a)
		c.record(0.5)
		root.record(0.5)
	}

	s := newSearch(&uniformPredictor{}, random.Fixed{Value: 1}, coinFlipInfo)
	assert.Equal(t, types.Action(1), s.selectAction(root, 1))

	s = newSearch(&uniformPredictor{}, random.Fixed{Value: 0}, coinFlipInfo)
	assert.Equal(t, types.Action(0), s.selectAction(root, 1))
}

func TestSelectAction_UCBPrefersHigherMean(t *testing.T) {
	root := newActionNode()
	root.child(0).record(0)
	root.child(1).record(1)
	root.record(0)
	root.record(1)

	s := newSearch(&uniformPredictor{}, random.Fixed{}, coinFlipInfo)
	assert.Equal(t, types.Action(1), s.selectAction(root, 1))
}

func TestUCB_ZeroRewardRange(t *testing.T) {
	info := types.NewEnvironmentInfo(2, 2, 3, 3)
	s := newSearch(&uniformPredictor{}, random.Fixed{}, info)

	parent := newActionNode()
	parent.visits = 4
	child := newChanceNode()
	child.record(3)

	// exploitation is zero, exploration = 0.2 * sqrt(log2(4) / 1)
	assert.InDelta(t, 0.2*1.4142135623730951, s.ucb(parent, child, 1), 1e-12)
}

func TestBestAction(t *testing.T) {
	info := types.NewEnvironmentInfo(5, 2, 0, 1)

	t.Run("nothing visited draws uniformly", func(t *testing.T) {
		s := newSearch(&uniformPredictor{}, random.Fixed{Value: 3}, info)
		assert.Equal(t, types.Action(3), s.bestAction(newActionNode()))
	})

	t.Run("highest mean among visited", func(t *testing.T) {
		root := newActionNode()
		root.child(1).record(0.2)
		root.child(4).record(0.9)
		root.child(2) // created but never visited

		s := newSearch(&uniformPredictor{}, random.Fixed{Value: 0}, info)
		assert.Equal(t, types.Action(4), s.bestAction(root))
	})

	t.Run("ties drawn from tied set", func(t *testing.T) {
		root := newActionNode()
		root.child(0).record(0.5)
		root.child(3).record(0.5)
		root.child(2).record(0.1)

		s := newSearch(&uniformPredictor{}, random.Fixed{Value: 1}, info)
		assert.Equal(t, types.Action(3), s.bestAction(root))
	})
}

func TestNodeStats_RunningMean(t *testing.T) {
	var s nodeStats
	for _, v := range []float64{1, 2, 3, 4} {
		s.record(v)
	}
	assert.Equal(t, uint64(4), s.visits)
	assert.InDelta(t, 2.5, s.mean, 1e-12)
}
