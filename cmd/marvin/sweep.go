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
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/marvin/services/aixi/config"
	"github.com/AleutianAI/marvin/services/aixi/journal"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

func runSweepCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	first, _ := cmd.Flags().GetUint64("seed")
	count, _ := cmd.Flags().GetInt("count")
	parallel, _ := cmd.Flags().GetInt("parallel")
	if count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", count)
	}

	logger, err := newLogger(cfg.Observability, os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var j *journal.Journal
	if cfg.Journal.Enabled {
		j, err = openJournal(cfg.Journal, logger.Slog())
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
	}

	seeds := make([]uint64, count)
	for i := range seeds {
		seeds[i] = first + uint64(i)
	}

	results, err := sweep(ctx, cfg, seeds, parallel, logger.Slog(), j)
	if err != nil {
		return err
	}
	return printSweep(cmd.OutOrStdout(), results)
}

// sweep runs one independent agent per seed.
//
// Description:
//
//	Agents share nothing but the journal, so they run concurrently up to
//	parallel at a time. The first failure cancels the remaining runs.
//	Results are returned in seed order regardless of completion order.
//
// Inputs:
//   - ctx: Cancellation for the whole sweep.
//   - cfg: Validated configuration shared by every run.
//   - seeds: One run per seed.
//   - parallel: Concurrency limit. Zero or less means runtime.NumCPU().
//   - logger: Logger handed to each run.
//   - j: Optional journal. May be nil.
//
// Outputs:
//   - []RunResult: One result per seed, same order as seeds.
//   - error: The first run failure.
func sweep(ctx context.Context, cfg config.FullConfig, seeds []uint64, parallel int, logger *slog.Logger, j *journal.Journal) ([]RunResult, error) {
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	results := make([]RunResult, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, seed := range seeds {
		g.Go(func() error {
			res, err := runSeeded(gctx, cfg, seed, logger, j)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total types.Reward
	for _, r := range results {
		total = total.Add(r.Summary.AverageReward)
	}
	logger.Info("sweep finished",
		slog.Int("runs", len(results)),
		slog.Float64("mean_average_reward", float64(total.Div(float64(len(results))))),
	)
	return results, nil
}

func printSweep(w io.Writer, results []RunResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEED\tCYCLES\tTOTAL\tAVERAGE\tELAPSED\tRUN")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%.0f\t%.4f\t%s\t%s\n",
			r.Seed, r.Summary.Cycles, float64(r.Summary.TotalReward),
			float64(r.Summary.AverageReward), r.Summary.Elapsed.Round(time.Millisecond), r.RunID)
	}
	return tw.Flush()
}
