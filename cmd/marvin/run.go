// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/marvin/pkg/telemetry"
	"github.com/AleutianAI/marvin/services/aixi/agent"
	"github.com/AleutianAI/marvin/services/aixi/config"
	"github.com/AleutianAI/marvin/services/aixi/environment"
	"github.com/AleutianAI/marvin/services/aixi/explorer"
	"github.com/AleutianAI/marvin/services/aixi/journal"
	"github.com/AleutianAI/marvin/services/aixi/random"
)

// ErrUnknownEnvironment is returned for an environment name with no implementation.
var ErrUnknownEnvironment = errors.New("unknown environment")

// RunResult is the outcome of one seeded agent run.
type RunResult struct {
	Seed    uint64        `json:"seed"`
	RunID   string        `json:"run_id,omitempty"`
	Summary agent.Summary `json:"summary"`
}

func runAgentCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Observability, os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := initTelemetry(ctx, cfg.Observability)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv, err := startMetricsServer(addr, logger.Slog())
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	var j *journal.Journal
	if cfg.Journal.Enabled {
		j, err = openJournal(cfg.Journal, logger.Slog())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
	}

	result, err := runSeeded(ctx, cfg, cfg.Agent.Seed, logger.Slog(), j)
	if err != nil {
		return err
	}

	logger.Info("run finished",
		slog.Uint64("seed", result.Seed),
		slog.Int("cycles", result.Summary.Cycles),
		slog.Float64("average_reward", float64(result.Summary.AverageReward)),
		slog.Duration("elapsed", result.Summary.Elapsed),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "average reward: %.4f over %d cycles\n",
		float64(result.Summary.AverageReward), result.Summary.Cycles)
	if result.RunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "journal run: %s\n", result.RunID)
	}
	return nil
}

func initTelemetry(ctx context.Context, obs config.ObservabilityConfig) (func(context.Context) error, error) {
	tcfg := telemetry.DefaultConfig()
	tcfg.TraceExporter = obs.TraceExporter
	tcfg.MetricExporter = obs.MetricExporter
	if obs.OTLPEndpoint != "" {
		tcfg.OTLPEndpoint = obs.OTLPEndpoint
	}
	// stdout exporters share stderr with the logs so stdout stays clean
	tcfg.Output = os.Stderr
	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	return shutdown, nil
}

// runSeeded runs one agent from a single seed.
//
// Description:
//
//	The seed feeds one parent random source. The environment and the
//	explorer factory each take a child of it, so two runs with the same
//	seed and settings produce the same cycles. When j is non-nil every
//	cycle is journaled and the summary is stored on completion, even if
//	ctx was cancelled part way.
//
// Inputs:
//   - ctx: Cancels the run between cycles.
//   - cfg: Validated configuration.
//   - seed: Seed for this run, overriding cfg.Agent.Seed.
//   - logger: Logger for the agent and planner.
//   - j: Optional journal. May be nil.
//
// Outputs:
//   - RunResult: Seed, journal run ID and summary.
//   - error: Construction or run failure.
func runSeeded(ctx context.Context, cfg config.FullConfig, seed uint64, logger *slog.Logger, j *journal.Journal) (RunResult, error) {
	source := random.NewSource(seed)
	env, err := newEnvironment(cfg.Environment, source.NewChild())
	if err != nil {
		return RunResult{}, err
	}

	strategy, err := agent.ParseStrategy(cfg.Agent.Strategy)
	if err != nil {
		return RunResult{}, err
	}
	logger = logger.With(slog.Uint64("seed", seed))
	factory := explorer.NewDefaultFactory(source.NewChild(), cfg.Planner, explorer.WithLogger(logger))

	a, err := agent.NewWithContextTree(env.Info(), cfg.Agent.ContextTreeDepth, factory,
		agent.WithLogger(logger),
		agent.WithStrategy(strategy),
	)
	if err != nil {
		return RunResult{}, fmt.Errorf("create agent: %w", err)
	}

	result := RunResult{Seed: seed}
	var run *journal.Run
	var observer agent.Observer
	if j != nil {
		run, err = j.StartRun(ctx, journal.RunMeta{
			Seed:             seed,
			Strategy:         string(strategy),
			ContextTreeDepth: cfg.Agent.ContextTreeDepth,
			Environment:      cfg.Environment.Name,
		})
		if err != nil {
			return RunResult{}, fmt.Errorf("start journal run: %w", err)
		}
		observer = run
		result.RunID = run.ID()
	}

	summary, runErr := a.RunCycles(ctx, env, cfg.Agent.Cycles, observer)
	result.Summary = summary
	if run != nil {
		if err := run.Finish(context.WithoutCancel(ctx), summary); err != nil {
			return result, errors.Join(runErr, fmt.Errorf("finish journal run: %w", err))
		}
	}
	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

func newEnvironment(cfg config.EnvironmentConfig, r random.Random) (environment.Environment, error) {
	switch cfg.Name {
	case "coin_flip":
		env, err := environment.NewBiasedCoinFlip(r, cfg.TailsPercent)
		if err != nil {
			return nil, err
		}
		return env, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, cfg.Name)
	}
}
