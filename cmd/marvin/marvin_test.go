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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/marvin/services/aixi/agent"
	"github.com/AleutianAI/marvin/services/aixi/config"
	"github.com/AleutianAI/marvin/services/aixi/journal"
)

var discard = slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))

func smallConfig() config.FullConfig {
	cfg := config.Default()
	cfg.Agent.Cycles = 12
	cfg.Agent.ContextTreeDepth = 3
	cfg.Planner.Rollouts = 20
	cfg.Planner.Horizon = 2
	return cfg
}

func newInMemoryJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open(journal.InMemoryConfig(), discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRunSeeded_Reproducible(t *testing.T) {
	cfg := smallConfig()

	first, err := runSeeded(context.Background(), cfg, 42, discard, nil)
	require.NoError(t, err)
	second, err := runSeeded(context.Background(), cfg, 42, discard, nil)
	require.NoError(t, err)

	assert.Equal(t, 12, first.Summary.Cycles)
	assert.Equal(t, first.Summary.TotalReward, second.Summary.TotalReward)
	assert.Empty(t, first.RunID)
}

func TestRunSeeded_RandomStrategy(t *testing.T) {
	cfg := smallConfig()
	cfg.Agent.Strategy = "random"

	res, err := runSeeded(context.Background(), cfg, 7, discard, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Summary.Cycles)
	assert.GreaterOrEqual(t, float64(res.Summary.AverageReward), 0.0)
	assert.LessOrEqual(t, float64(res.Summary.AverageReward), 1.0)
}

func TestRunSeeded_Journaled(t *testing.T) {
	ctx := context.Background()
	j := newInMemoryJournal(t)

	res, err := runSeeded(ctx, smallConfig(), 3, discard, j)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	meta, err := j.Run(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), meta.Seed)
	assert.Equal(t, 12, meta.Cycles)
	assert.False(t, meta.FinishedAt.IsZero())

	cycles, err := j.Cycles(ctx, res.RunID)
	require.NoError(t, err)
	require.Len(t, cycles, 12)
	assert.Equal(t, 1, cycles[0].Index)
	assert.Equal(t, res.Summary.AverageReward, cycles[11].AverageReward)
}

func TestRunSeeded_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := runSeeded(ctx, smallConfig(), 1, discard, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Summary.Cycles)
}

func TestNewEnvironment(t *testing.T) {
	_, err := newEnvironment(config.EnvironmentConfig{Name: "maze"}, nil)
	assert.ErrorIs(t, err, ErrUnknownEnvironment)

	_, err = newEnvironment(config.EnvironmentConfig{Name: "coin_flip", TailsPercent: 101}, nil)
	assert.Error(t, err)
}

func TestSweep_SeedOrderAndReproducible(t *testing.T) {
	cfg := smallConfig()
	seeds := []uint64{10, 11, 12, 13, 14}

	a, err := sweep(context.Background(), cfg, seeds, 3, discard, nil)
	require.NoError(t, err)
	b, err := sweep(context.Background(), cfg, seeds, 1, discard, nil)
	require.NoError(t, err)

	require.Len(t, a, len(seeds))
	for i, seed := range seeds {
		assert.Equal(t, seed, a[i].Seed)
		assert.Equal(t, a[i].Summary.TotalReward, b[i].Summary.TotalReward, "seed %d", seed)
	}

	var buf bytes.Buffer
	require.NoError(t, printSweep(&buf, a))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, len(seeds)+1)
	assert.True(t, strings.HasPrefix(lines[1], "10 "))
}

func TestSweep_JournalsEveryRun(t *testing.T) {
	ctx := context.Background()
	j := newInMemoryJournal(t)

	_, err := sweep(ctx, smallConfig(), []uint64{1, 2, 3}, 0, discard, j)
	require.NoError(t, err)

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestPrintHistory(t *testing.T) {
	ctx := context.Background()
	j := newInMemoryJournal(t)
	res, err := runSeeded(ctx, smallConfig(), 9, discard, j)
	require.NoError(t, err)

	var runs bytes.Buffer
	require.NoError(t, printRuns(ctx, &runs, j, false))
	assert.Contains(t, runs.String(), res.RunID)
	assert.Contains(t, runs.String(), "mcts")

	var cycles bytes.Buffer
	require.NoError(t, printCycles(ctx, &cycles, j, res.RunID, true))
	var decoded []agent.Cycle
	require.NoError(t, json.Unmarshal(cycles.Bytes(), &decoded))
	assert.Len(t, decoded, 12)

	err = printCycles(ctx, &bytes.Buffer{}, j, "missing", false)
	assert.ErrorIs(t, err, journal.ErrRunNotFound)
}

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addAgentFlags(cmd)
	cmd.Flags().Uint64("seed", 0, "")
	cmd.Flags().Bool("journal", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{
		"--cycles", "30", "--strategy", " Random ", "--seed", "99", "--time-limit", "250ms", "--journal",
	}))

	cfg := config.Default()
	require.NoError(t, applyFlags(cmd.Flags(), &cfg))

	assert.Equal(t, 30, cfg.Agent.Cycles)
	assert.Equal(t, "random", cfg.Agent.Strategy)
	assert.Equal(t, uint64(99), cfg.Agent.Seed)
	assert.Equal(t, 250*time.Millisecond, cfg.Planner.TimeLimit)
	assert.True(t, cfg.Journal.Enabled)
	// untouched flags keep config values
	assert.Equal(t, config.Default().Agent.ContextTreeDepth, cfg.Agent.ContextTreeDepth)
	assert.Equal(t, config.Default().Planner.Rollouts, cfg.Planner.Rollouts)
}

func TestUseJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, useJSON("json", f.Fd()))
	assert.False(t, useJSON("text", f.Fd()))
	assert.True(t, useJSON("auto", f.Fd()), "a regular file is not a terminal")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/.marvin/journal")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".marvin/journal"), got)

	got, err = expandHome("/tmp/journal")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/journal", got)
}

func TestMetricsRouter(t *testing.T) {
	router := newMetricsRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	// Make sure the planner collectors have something to report.
	_, err := runSeeded(context.Background(), smallConfig(), 1, discard, nil)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marvin_explorer_decisions_total")
	assert.Contains(t, rec.Body.String(), "marvin_agent_cycles_total")
}

func TestStartMetricsServer(t *testing.T) {
	srv, err := startMetricsServer("127.0.0.1:0", discard)
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	_, err = startMetricsServer("256.0.0.1:bad", discard)
	assert.Error(t, err)
}

func TestRunCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marvin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  context_tree_depth: 3
  cycles: 5
planner:
  horizon: 2
  rollouts: 10
journal:
  dir: `+filepath.Join(dir, "journal")+`
observability:
  log_level: error
  log_format: json
`), 0600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--config", path, "--journal", "--seed", "4"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		configPath = ""
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "average reward:")
	assert.Contains(t, out.String(), "over 5 cycles")
	assert.Contains(t, out.String(), "journal run:")
}
