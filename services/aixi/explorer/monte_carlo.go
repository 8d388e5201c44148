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
	"log/slog"
	"math"
	"time"

	"github.com/emirpasic/gods/sets/treeset"

	"github.com/AleutianAI/marvin/pkg/bitstring"
	"github.com/AleutianAI/marvin/services/aixi/predictor"
	"github.com/AleutianAI/marvin/services/aixi/random"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

// StrategyMonteCarlo labels metrics and spans produced by MonteCarloExplorer.
const StrategyMonteCarlo = "mcts"

// Option configures a MonteCarloExplorer.
type Option func(*MonteCarloExplorer)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *MonteCarloExplorer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// withClock replaces time.Now for budget accounting in tests.
func withClock(now func() time.Time) Option {
	return func(e *MonteCarloExplorer) {
		e.now = now
	}
}

// MonteCarloExplorer plans by Monte Carlo tree search over imagined
// futures drawn from the agent's predictor.
//
// Description:
//
//	Each Explore builds a fresh tree. A rollout walks down from the root:
//	at action nodes an action is selected (mandatory visits first, then
//	UCB1), at chance nodes the action bits are fed to the predictor and a
//	percept is sampled from it bit by bit. Returns are summed over the
//	horizon and averaged into every node on the way back up. After each
//	rollout the predictor is reverted to its starting history size.
//
// Thread Safety: Not safe for concurrent use. The predictor is borrowed
// for the duration of Explore and must not be touched by anyone else
// meanwhile.
type MonteCarloExplorer struct {
	predictor predictor.Predictor
	random    random.Random
	config    PlannerConfig
	logger    *slog.Logger
	tracer    *plannerTracer
	now       func() time.Time
}

// NewMonteCarloExplorer creates a planner.
//
// Inputs:
//   - p: The agent's predictor. Borrowed, not owned.
//   - r: Random source for selection tie-breaks and percept sampling.
//   - config: Planner settings. Validated here.
//   - opts: Optional settings.
//
// Outputs:
//   - *MonteCarloExplorer: Ready to use.
//   - error: ErrNilPredictor, ErrNilRandom or a wrapped ErrInvalidConfig.
func NewMonteCarloExplorer(p predictor.Predictor, r random.Random, config PlannerConfig, opts ...Option) (*MonteCarloExplorer, error) {
	if p == nil {
		return nil, ErrNilPredictor
	}
	if r == nil {
		return nil, ErrNilRandom
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &MonteCarloExplorer{
		predictor: p,
		random:    r,
		config:    config,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tracer = newPlannerTracer(e.logger, config.TracingEnabled)
	return e, nil
}

// Config returns the planner settings.
func (e *MonteCarloExplorer) Config() PlannerConfig {
	return e.config
}

// Explore runs rollouts until the budget is spent and returns the root
// action with the best mean return.
//
// Inputs:
//   - ctx: Cancellation stops planning after the current rollout.
//   - info: The environment's action count and reward bounds.
//
// Outputs:
//   - types.Action: An action in [0, info.NumActions()).
//   - error: ErrNoActions, or a predictor failure while reverting.
func (e *MonteCarloExplorer) Explore(ctx context.Context, info types.EnvironmentInfo) (types.Action, error) {
	if info.NumActions() < 1 {
		return 0, fmt.Errorf("%w: num_actions=%d", ErrNoActions, info.NumActions())
	}

	budget := newRolloutBudgetWithClock(e.config.Rollouts, e.config.TimeLimit, e.now)
	ctx, span := e.tracer.startExplore(ctx, info, e.config)

	s := &search{
		predictor: e.predictor,
		random:    e.random,
		codec:     types.NewPerceptCodec(info),
		info:      info,
		c:         e.config.ExplorationConstant,
		minVisits: uint64(e.config.MinVisits),
	}

	root := newActionNode()
	start := e.predictor.HistorySize()
	var err error
	for !budget.Exhausted(ctx) {
		if _, err = s.sampleAction(root, e.config.Horizon); err != nil {
			break
		}
		if err = e.predictor.RevertToHistorySize(start); err != nil {
			err = fmt.Errorf("revert predictor after rollout: %w", err)
			break
		}
		budget.RecordRollout()
	}
	if err != nil {
		// Leave the predictor as we found it even on failure.
		_ = e.predictor.RevertToHistorySize(start)
		e.tracer.endExplore(span, budget, 0, err)
		recordDecision(StrategyMonteCarlo, "error")
		return 0, err
	}

	action := s.bestAction(root)
	e.tracer.endExplore(span, budget, action, nil)
	recordDecision(StrategyMonteCarlo, "success")
	recordRollouts(budget.Rollouts(), budget.ExhaustedBy(), budget.Elapsed())

	e.logger.DebugContext(ctx, "planner decided",
		slog.Int("action", int(action)),
		slog.Int64("rollouts", budget.Rollouts()),
		slog.String("exhausted_by", budget.ExhaustedBy()),
		slog.Float64("root_mean", root.mean),
	)
	return action, nil
}

// search holds the per-decision state shared by a rollout's recursion.
type search struct {
	predictor predictor.Predictor
	random    random.Random
	codec     types.PerceptCodec
	info      types.EnvironmentInfo
	c         float64
	minVisits uint64
}

// sampleAction runs the rest of a rollout from an action node with h
// cycles left and records the return.
func (s *search) sampleAction(n *actionNode, h int) (float64, error) {
	if h == 0 {
		return 0, nil
	}
	a := s.selectAction(n, h)
	ret, err := s.sampleChance(n.child(a), a, h)
	if err != nil {
		return 0, err
	}
	n.record(ret)
	return ret, nil
}

// sampleChance commits a's bits, samples a percept, and continues from
// the resulting action node.
func (s *search) sampleChance(n *chanceNode, a types.Action, h int) (float64, error) {
	actionBits, err := s.codec.EncodeAction(a)
	if err != nil {
		return 0, err
	}
	s.predictor.Update(actionBits)

	percept, err := s.samplePercept()
	if err != nil {
		return 0, err
	}

	future, err := s.sampleAction(n.child(percept), h-1)
	if err != nil {
		return 0, err
	}
	ret := float64(percept.Reward) + future
	n.record(ret)
	return ret, nil
}

// samplePercept draws one percept from the predictor, one bit at a time,
// committing each drawn bit before drawing the next.
func (s *search) samplePercept() (types.Percept, error) {
	width := s.codec.PerceptBits()
	drawn := bitstring.New()
	one := bitstring.FromBits(bitstring.One)
	zero := bitstring.FromBits(bitstring.Zero)

	for i := 0; i < width; i++ {
		p1 := s.predictor.Predict(one)
		bit := bitstring.BitFromBool(random.Float64(s.random) < p1)
		if bit == bitstring.One {
			s.predictor.Update(one)
		} else {
			s.predictor.Update(zero)
		}
		drawn.Push(bit)
	}

	percept, err := s.codec.DecodePercept(drawn)
	if err != nil {
		return types.Percept{}, fmt.Errorf("decode sampled percept: %w", err)
	}
	return percept, nil
}

// selectAction picks the next action to try at n.
//
// Description:
//
//	Actions visited fewer than minVisits times are mandatory and one of
//	them is drawn uniformly. Otherwise the action with the highest UCB1
//	score wins, exact ties drawn uniformly.
func (s *search) selectAction(n *actionNode, h int) types.Action {
	numActions := types.Action(s.info.NumActions())

	mandatory := newActionSet()
	for a := types.Action(0); a < numActions; a++ {
		if n.visitsOf(a) < s.minVisits {
			mandatory.Add(a)
		}
	}
	if !mandatory.Empty() {
		return s.draw(mandatory)
	}

	best := newActionSet()
	bestScore := math.Inf(-1)
	for a := types.Action(0); a < numActions; a++ {
		score := s.ucb(n, n.children[a], h)
		switch {
		case score > bestScore:
			best.Clear()
			best.Add(a)
			bestScore = score
		case score == bestScore:
			best.Add(a)
		}
	}
	return s.draw(best)
}

// ucb scores child under parent for a node with h cycles remaining.
func (s *search) ucb(parent *actionNode, child *chanceNode, h int) float64 {
	exploitation := 0.0
	if span := float64(s.info.RewardRange()); span > 0 {
		horizon := float64(h)
		exploitation = (child.mean - horizon*float64(s.info.MinReward())) / (span * horizon)
	}
	exploration := s.c * math.Sqrt(math.Log2(float64(parent.visits))/float64(child.visits))
	return exploitation + exploration
}

// bestAction returns the visited root action with the highest mean, or a
// uniformly random action if nothing was visited.
func (s *search) bestAction(root *actionNode) types.Action {
	numActions := types.Action(s.info.NumActions())

	best := newActionSet()
	bestMean := math.Inf(-1)
	for a := types.Action(0); a < numActions; a++ {
		c, ok := root.children[a]
		if !ok || c.visits == 0 {
			continue
		}
		switch {
		case c.mean > bestMean:
			best.Clear()
			best.Add(a)
			bestMean = c.mean
		case c.mean == bestMean:
			best.Add(a)
		}
	}
	if best.Empty() {
		return types.Action(s.random.NextModulo(uint64(numActions)))
	}
	return s.draw(best)
}

// draw returns a uniformly random member of a non-empty set.
func (s *search) draw(set *treeset.Set) types.Action {
	values := set.Values()
	return values[s.random.NextModulo(uint64(len(values)))].(types.Action)
}

var _ Explorer = (*MonteCarloExplorer)(nil)
