// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent drives the act/observe/learn cycle of a predictor-based
// reinforcement learner.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/marvin/services/aixi/explorer"
	"github.com/AleutianAI/marvin/services/aixi/predictor"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

// Sentinel errors for the agent package.
var (
	ErrUnknownStrategy = errors.New("unknown exploration strategy")
	ErrNilFactory      = errors.New("explorer factory must not be nil")
	ErrNilEnvironment  = errors.New("environment must not be nil")
)

// Strategy selects how the agent picks actions.
type Strategy string

const (
	// StrategyMonteCarlo plans with Monte Carlo tree search over the predictor.
	StrategyMonteCarlo Strategy = explorer.StrategyMonteCarlo

	// StrategyRandom acts uniformly at random.
	StrategyRandom Strategy = explorer.StrategyRandom
)

// ParseStrategy converts a config string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyMonteCarlo, "":
		return StrategyMonteCarlo, nil
	case StrategyRandom:
		return StrategyRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithStrategy sets the exploration strategy. The default is StrategyMonteCarlo.
func WithStrategy(s Strategy) Option {
	return func(a *Agent) {
		a.strategy = s
	}
}

// Agent learns a model of its environment and acts on it.
//
// Description:
//
//	The agent owns one predictor holding its whole interaction history as
//	bits: every chosen action followed by every received percept. For each
//	decision it asks the factory for a fresh explorer, which borrows the
//	predictor while planning.
//
// Thread Safety: Not safe for concurrent use.
type Agent struct {
	info      types.EnvironmentInfo
	codec     types.PerceptCodec
	predictor predictor.Predictor
	factory   explorer.Factory
	strategy  Strategy
	logger    *slog.Logger

	age         int
	totalReward types.Reward
}

// New creates an agent.
//
// Inputs:
//   - info: What the agent knows a priori about its environment.
//   - p: The agent's model. Owned by the agent from here on.
//   - factory: Produces an explorer per decision.
//   - opts: Optional settings.
//
// Outputs:
//   - *Agent: Ready to act.
//   - error: Non-nil for nil collaborators or an unknown strategy.
func New(info types.EnvironmentInfo, p predictor.Predictor, factory explorer.Factory, opts ...Option) (*Agent, error) {
	if p == nil {
		return nil, explorer.ErrNilPredictor
	}
	if factory == nil {
		return nil, ErrNilFactory
	}

	a := &Agent{
		info:      info,
		codec:     types.NewPerceptCodec(info),
		predictor: p,
		factory:   factory,
		strategy:  StrategyMonteCarlo,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if _, err := ParseStrategy(string(a.strategy)); err != nil {
		return nil, err
	}
	return a, nil
}

// NewWithContextTree creates an agent backed by a fresh context tree of
// the given depth.
func NewWithContextTree(info types.EnvironmentInfo, depth int, factory explorer.Factory, opts ...Option) (*Agent, error) {
	tree, err := predictor.NewContextTree(depth)
	if err != nil {
		return nil, fmt.Errorf("create context tree: %w", err)
	}
	return New(info, tree, factory, opts...)
}

// Age returns the number of completed cycles.
func (a *Agent) Age() int { return a.age }

// TotalReward returns the reward accumulated so far.
func (a *Agent) TotalReward() types.Reward { return a.totalReward }

// AverageReward returns the mean reward per cycle, 0 before the first cycle.
func (a *Agent) AverageReward() types.Reward {
	if a.age == 0 {
		return 0
	}
	return a.totalReward.Div(float64(a.age))
}

// HistorySize returns the number of bits in the agent's model.
func (a *Agent) HistorySize() int { return a.predictor.HistorySize() }

// Strategy returns the exploration strategy.
func (a *Agent) Strategy() Strategy { return a.strategy }

// Info returns the environment description the agent was built with.
func (a *Agent) Info() types.EnvironmentInfo { return a.info }

// Act decides on the next action and commits it to the model.
//
// Outputs:
//   - types.Action: The chosen action.
//   - error: Explorer construction or planning failure.
func (a *Agent) Act(ctx context.Context) (types.Action, error) {
	var (
		ex  explorer.Explorer
		err error
	)
	switch a.strategy {
	case StrategyRandom:
		ex, err = a.factory.NewRandom()
	default:
		ex, err = a.factory.NewMonteCarlo(a.predictor)
	}
	if err != nil {
		return 0, fmt.Errorf("create explorer: %w", err)
	}

	action, err := ex.Explore(ctx, a.info)
	if err != nil {
		return 0, fmt.Errorf("explore: %w", err)
	}

	bits, err := a.codec.EncodeAction(action)
	if err != nil {
		return 0, fmt.Errorf("commit action: %w", err)
	}
	a.predictor.Update(bits)
	return action, nil
}

// Update commits the environment's answer to the model and completes the
// cycle.
func (a *Agent) Update(observation types.Observation, reward types.SingleReward) error {
	bits, err := a.codec.EncodePercept(types.Percept{Observation: observation, Reward: reward})
	if err != nil {
		return fmt.Errorf("commit percept: %w", err)
	}
	a.predictor.Update(bits)
	a.age++
	a.totalReward = a.totalReward.AddSingle(reward)
	return nil
}
