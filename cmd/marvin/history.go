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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/marvin/services/aixi/journal"
)

func runHistoryCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	logger, err := newLogger(cfg.Observability, os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	j, err := openJournal(cfg.Journal, logger.Slog())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	if len(args) == 1 {
		return printCycles(cmd.Context(), cmd.OutOrStdout(), j, args[0], asJSON)
	}
	return printRuns(cmd.Context(), cmd.OutOrStdout(), j, asJSON)
}

func printRuns(ctx context.Context, w io.Writer, j *journal.Journal, asJSON bool) error {
	runs, err := j.Runs(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, runs)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSEED\tSTRATEGY\tDEPTH\tCYCLES\tAVERAGE")
	for _, r := range runs {
		average := "-"
		if !r.FinishedAt.IsZero() {
			average = fmt.Sprintf("%.4f", float64(r.AverageReward))
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Seed, r.Strategy,
			r.ContextTreeDepth, r.Cycles, average)
	}
	return tw.Flush()
}

func printCycles(ctx context.Context, w io.Writer, j *journal.Journal, runID string, asJSON bool) error {
	if _, err := j.Run(ctx, runID); err != nil {
		return err
	}
	cycles, err := j.Cycles(ctx, runID)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, cycles)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CYCLE\tACTION\tOBSERVATION\tREWARD\tAVERAGE")
	for _, c := range cycles {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%.4f\n",
			c.Index, c.Action, c.Observation, c.Reward, float64(c.AverageReward))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
