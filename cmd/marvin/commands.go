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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string

	rootCmd = &cobra.Command{
		Use:   "marvin",
		Short: "A Monte Carlo AIXI agent with a context tree weighting model",
		Long: `marvin learns a bitwise model of its environment with context tree
weighting and plans each action with Monte Carlo tree search over that model.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one agent against the configured environment",
		Args:  cobra.NoArgs,
		RunE:  runAgentCommand,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Run independent agents for a range of seeds in parallel",
		Args:  cobra.NoArgs,
		RunE:  runSweepCommand,
	}

	historyCmd = &cobra.Command{
		Use:   "history [run-id]",
		Short: "List journaled runs, or the cycles of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistoryCommand,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: auto, text, json")
	rootCmd.PersistentFlags().String("journal-dir", "", "Directory of the run journal")

	addAgentFlags(runCmd)
	runCmd.Flags().Uint64("seed", 0, "Random seed for the run")
	runCmd.Flags().Bool("journal", false, "Record the run in the journal")
	runCmd.Flags().String("metrics-addr", "", "Serve /metrics and /healthz on this address during the run")
	rootCmd.AddCommand(runCmd)

	addAgentFlags(sweepCmd)
	sweepCmd.Flags().Uint64("seed", 1, "First seed of the sweep")
	sweepCmd.Flags().Int("count", 8, "Number of seeds")
	sweepCmd.Flags().Int("parallel", 0, "Maximum concurrent agents (0 = number of CPUs)")
	sweepCmd.Flags().Bool("journal", false, "Record every run in the journal")
	rootCmd.AddCommand(sweepCmd)

	historyCmd.Flags().Bool("json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(historyCmd)
}

// addAgentFlags registers the flags shared by run and sweep.
func addAgentFlags(cmd *cobra.Command) {
	cmd.Flags().Int("cycles", 0, "Number of agent-environment cycles")
	cmd.Flags().Int("depth", 0, "Context tree depth")
	cmd.Flags().String("strategy", "", "Exploration strategy: mcts or random")
	cmd.Flags().Int("horizon", 0, "Planning horizon in cycles")
	cmd.Flags().Int("rollouts", 0, "Rollouts per decision")
	cmd.Flags().Duration("time-limit", 0, "Wall-clock limit per decision (0 = none)")
	cmd.Flags().Int("tails-percent", 0, "Probability of tails for the coin, in percent")
}
