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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AleutianAI/marvin/pkg/logging"
	"github.com/AleutianAI/marvin/services/aixi/config"
	"github.com/AleutianAI/marvin/services/aixi/journal"
)

// loadConfig merges the config file, environment and the flags the user
// actually set on cmd, then validates the result.
func loadConfig(cmd *cobra.Command) (config.FullConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.FullConfig{}, err
	}
	if err := applyFlags(cmd.Flags(), &cfg); err != nil {
		return config.FullConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.FullConfig{}, err
	}
	return cfg, nil
}

func applyFlags(flags *pflag.FlagSet, cfg *config.FullConfig) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || !flags.Changed(name) {
			return
		}
		if applyErr := apply(); applyErr != nil {
			err = fmt.Errorf("flag --%s: %w", name, applyErr)
		}
	}

	set("cycles", func() (e error) { cfg.Agent.Cycles, e = flags.GetInt("cycles"); return })
	set("depth", func() (e error) { cfg.Agent.ContextTreeDepth, e = flags.GetInt("depth"); return })
	set("seed", func() (e error) { cfg.Agent.Seed, e = flags.GetUint64("seed"); return })
	set("strategy", func() (e error) { cfg.Agent.Strategy, e = flags.GetString("strategy"); return })
	set("horizon", func() (e error) { cfg.Planner.Horizon, e = flags.GetInt("horizon"); return })
	set("rollouts", func() (e error) { cfg.Planner.Rollouts, e = flags.GetInt("rollouts"); return })
	set("time-limit", func() (e error) { cfg.Planner.TimeLimit, e = flags.GetDuration("time-limit"); return })
	set("tails-percent", func() (e error) { cfg.Environment.TailsPercent, e = flags.GetInt("tails-percent"); return })
	set("journal", func() (e error) { cfg.Journal.Enabled, e = flags.GetBool("journal"); return })
	set("journal-dir", func() (e error) { cfg.Journal.Dir, e = flags.GetString("journal-dir"); return })
	set("metrics-addr", func() (e error) { cfg.Observability.MetricsAddr, e = flags.GetString("metrics-addr"); return })
	set("log-level", func() (e error) { cfg.Observability.LogLevel, e = flags.GetString("log-level"); return })
	set("log-format", func() (e error) { cfg.Observability.LogFormat, e = flags.GetString("log-format"); return })

	cfg.Agent.Strategy = strings.ToLower(strings.TrimSpace(cfg.Agent.Strategy))
	return err
}

// newLogger builds the process logger from the observability settings.
// "auto" picks text for a terminal and JSON otherwise.
func newLogger(obs config.ObservabilityConfig, out *os.File) (*logging.Logger, error) {
	level, err := logging.ParseLevel(obs.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:  level,
		LogDir: obs.LogDir,
		JSON:   useJSON(obs.LogFormat, out.Fd()),
		Output: out,
	})
}

func useJSON(format string, fd uintptr) bool {
	switch format {
	case "json":
		return true
	case "text":
		return false
	default:
		return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	}
}

// openJournal opens the journal described by cfg.
func openJournal(cfg config.JournalConfig, logger *slog.Logger) (*journal.Journal, error) {
	if cfg.InMemory {
		return journal.Open(journal.InMemoryConfig(), logger)
	}
	dir, err := expandHome(cfg.Dir)
	if err != nil {
		return nil, err
	}
	jcfg := journal.DefaultConfig(dir)
	jcfg.Logger = logger.With(slog.String("component", "badger"))
	return journal.Open(jcfg, logger)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}
