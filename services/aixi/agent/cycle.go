// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/marvin/pkg/telemetry"
	"github.com/AleutianAI/marvin/services/aixi/environment"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

const agentTracerName = "marvin.agent"

// Cycle is the outcome of one act/observe/update round.
type Cycle struct {
	Index         int                `json:"index"`
	Action        types.Action       `json:"action"`
	Observation   types.Observation  `json:"observation"`
	Reward        types.SingleReward `json:"reward"`
	TotalReward   types.Reward       `json:"total_reward"`
	AverageReward types.Reward       `json:"average_reward"`
	HistorySize   int                `json:"history_size"`
	Duration      time.Duration      `json:"duration"`
}

// Observer receives every completed cycle. Returning an error stops the run.
type Observer interface {
	ObserveCycle(ctx context.Context, c Cycle) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, c Cycle) error

// ObserveCycle implements Observer.
func (f ObserverFunc) ObserveCycle(ctx context.Context, c Cycle) error {
	return f(ctx, c)
}

// Summary reports a finished run.
type Summary struct {
	Cycles        int           `json:"cycles"`
	TotalReward   types.Reward  `json:"total_reward"`
	AverageReward types.Reward  `json:"average_reward"`
	Elapsed       time.Duration `json:"elapsed"`
}

// RunCycles lets the agent interact with env for n cycles.
//
// Description:
//
//	Each cycle the agent acts, the environment updates, and the agent
//	learns from the resulting percept. The observer, if any, sees every
//	cycle. Cancelling ctx stops the run between cycles.
//
// Inputs:
//   - ctx: Context for cancellation and tracing.
//   - env: The environment. Its Info should match the agent's.
//   - n: Number of cycles to run.
//   - observer: Optional. May be nil.
//
// Outputs:
//   - Summary: Totals over the cycles completed.
//   - error: First failure from planning, the environment, or the observer.
func (a *Agent) RunCycles(ctx context.Context, env environment.Environment, n int, observer Observer) (Summary, error) {
	if env == nil {
		return Summary{}, ErrNilEnvironment
	}

	tracer := otel.Tracer(agentTracerName)
	ctx, span := tracer.Start(ctx, "agent.run",
		trace.WithAttributes(
			attribute.Int("agent.cycles", n),
			attribute.String("agent.strategy", string(a.strategy)),
		),
	)
	defer span.End()

	start := time.Now()
	completed := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			telemetry.RecordError(span, err)
			return a.summary(completed, start), err
		}

		c, err := a.cycle(ctx, tracer, env)
		if err != nil {
			telemetry.RecordError(span, err)
			return a.summary(completed, start), fmt.Errorf("cycle %d: %w", a.age, err)
		}
		completed++
		recordCycle(string(a.strategy), c)

		a.logger.DebugContext(ctx, "cycle complete",
			slog.String("trace_id", telemetry.TraceID(ctx)),
			slog.Int("cycle", c.Index),
			slog.Int("action", int(c.Action)),
			slog.Int("observation", int(c.Observation)),
			slog.Int("reward", int(c.Reward)),
			slog.Float64("average_reward", float64(c.AverageReward)),
		)

		if observer != nil {
			if err := observer.ObserveCycle(ctx, c); err != nil {
				telemetry.RecordError(span, err)
				return a.summary(completed, start), fmt.Errorf("observe cycle %d: %w", c.Index, err)
			}
		}
	}

	summary := a.summary(completed, start)
	span.SetAttributes(attribute.Float64("agent.average_reward", float64(summary.AverageReward)))
	telemetry.SetSpanOK(span)
	return summary, nil
}

func (a *Agent) cycle(ctx context.Context, tracer trace.Tracer, env environment.Environment) (Cycle, error) {
	ctx, span := tracer.Start(ctx, "agent.cycle", trace.WithAttributes(attribute.Int("agent.age", a.age)))
	defer span.End()

	start := time.Now()
	action, err := a.Act(ctx)
	if err != nil {
		return Cycle{}, err
	}
	if err := env.Update(action); err != nil {
		return Cycle{}, fmt.Errorf("environment update: %w", err)
	}
	reward, err := env.Reward()
	if err != nil {
		return Cycle{}, fmt.Errorf("environment reward: %w", err)
	}
	observation := env.Observation()
	if err := a.Update(observation, reward); err != nil {
		return Cycle{}, err
	}

	span.SetAttributes(
		attribute.Int("agent.action", int(action)),
		attribute.Int("agent.reward", int(reward)),
	)
	return Cycle{
		Index:         a.age,
		Action:        action,
		Observation:   observation,
		Reward:        reward,
		TotalReward:   a.totalReward,
		AverageReward: a.AverageReward(),
		HistorySize:   a.predictor.HistorySize(),
		Duration:      time.Since(start),
	}, nil
}

func (a *Agent) summary(cycles int, start time.Time) Summary {
	return Summary{
		Cycles:        cycles,
		TotalReward:   a.totalReward,
		AverageReward: a.AverageReward(),
		Elapsed:       time.Since(start),
	}
}
