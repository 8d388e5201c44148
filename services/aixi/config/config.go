// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the marvin run configuration.
//
// Priority is environment variables over the config file over defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/marvin/services/aixi/explorer"
	"github.com/AleutianAI/marvin/services/aixi/predictor"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// FullConfig is the complete run configuration.
type FullConfig struct {
	// Agent contains learner settings.
	Agent AgentConfig `json:"agent" yaml:"agent"`

	// Environment selects and tunes the world.
	Environment EnvironmentConfig `json:"environment" yaml:"environment"`

	// Planner contains Monte Carlo planner settings.
	Planner explorer.PlannerConfig `json:"planner" yaml:"planner"`

	// Journal contains run journal settings.
	Journal JournalConfig `json:"journal" yaml:"journal"`

	// Observability contains logging, tracing and metrics settings.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// AgentConfig contains learner settings.
type AgentConfig struct {
	ContextTreeDepth int    `json:"context_tree_depth" yaml:"context_tree_depth" validate:"gte=0"`
	Cycles           int    `json:"cycles" yaml:"cycles" validate:"gte=1"`
	Seed             uint64 `json:"seed" yaml:"seed"`
	Strategy         string `json:"strategy" yaml:"strategy" validate:"oneof=mcts random"`
}

// EnvironmentConfig selects the world.
type EnvironmentConfig struct {
	Name         string `json:"name" yaml:"name" validate:"oneof=coin_flip"`
	TailsPercent int    `json:"tails_percent" yaml:"tails_percent" validate:"gte=0,lte=100"`
}

// JournalConfig contains run journal settings.
type JournalConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Dir      string `json:"dir" yaml:"dir" validate:"required_if=Enabled true InMemory false"`
	InMemory bool   `json:"in_memory" yaml:"in_memory"`
}

// ObservabilityConfig contains logging, tracing and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat      string `json:"log_format" yaml:"log_format" validate:"oneof=auto text json"`
	LogDir         string `json:"log_dir" yaml:"log_dir"`
	TraceExporter  string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	MetricsAddr    string `json:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the configuration of the reference coin-flip run.
func Default() FullConfig {
	planner := explorer.DefaultPlannerConfig()
	return FullConfig{
		Agent: AgentConfig{
			ContextTreeDepth: 4,
			Cycles:           10,
			Seed:             5761567,
			Strategy:         "mcts",
		},
		Environment: EnvironmentConfig{
			Name:         "coin_flip",
			TailsPercent: 50,
		},
		Planner: planner,
		Journal: JournalConfig{
			Enabled: false,
			Dir:     "~/.marvin/journal",
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "auto",
			LogDir:         "",
			TraceExporter:  "none",
			MetricExporter: "none",
			OTLPEndpoint:   "localhost:4317",
			MetricsAddr:    "",
		},
	}
}

// Load loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to a YAML or JSON config file. Optional, may be
//     empty. A missing file is not an error.
//
// Outputs:
//   - FullConfig: Merged configuration.
//   - error: Non-nil if the file is unreadable or the result is invalid.
func Load(configPath string) (FullConfig, error) {
	config := Default()

	if configPath != "" {
		if err := loadConfigFile(configPath, &config); err != nil {
			return config, fmt.Errorf("load config file: %w", err)
		}
	}

	loadConfigFromEnv(&config)

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func loadConfigFile(path string, config *FullConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if jsonErr := json.Unmarshal(data, config); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadConfigFromEnv(config *FullConfig) {
	// Agent
	if v := os.Getenv("MARVIN_CONTEXT_TREE_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Agent.ContextTreeDepth = i
		}
	}
	if v := os.Getenv("MARVIN_CYCLES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Agent.Cycles = i
		}
	}
	if v := os.Getenv("MARVIN_SEED"); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Agent.Seed = u
		}
	}
	if v := os.Getenv("MARVIN_STRATEGY"); v != "" {
		config.Agent.Strategy = v
	}
	if v := os.Getenv("MARVIN_TAILS_PERCENT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Environment.TailsPercent = i
		}
	}

	// Planner
	if v := os.Getenv("MARVIN_HORIZON"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Planner.Horizon = i
		}
	}
	if v := os.Getenv("MARVIN_ROLLOUTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			config.Planner.Rollouts = i
		}
	}
	if v := os.Getenv("MARVIN_TIME_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Planner.TimeLimit = d
		}
	}
	if v := os.Getenv("MARVIN_EXPLORATION_CONSTANT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Planner.ExplorationConstant = f
		}
	}
	if v := os.Getenv("MARVIN_TRACING_ENABLED"); v != "" {
		config.Planner.TracingEnabled = v == "true" || v == "1"
	}

	// Journal
	if v := os.Getenv("MARVIN_JOURNAL_ENABLED"); v != "" {
		config.Journal.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("MARVIN_JOURNAL_DIR"); v != "" {
		config.Journal.Dir = v
	}

	// Observability
	if v := os.Getenv("MARVIN_LOG_LEVEL"); v != "" {
		config.Observability.LogLevel = v
	}
	if v := os.Getenv("MARVIN_LOG_FORMAT"); v != "" {
		config.Observability.LogFormat = v
	}
	if v := os.Getenv("MARVIN_TRACE_EXPORTER"); v != "" {
		config.Observability.TraceExporter = v
	}
	if v := os.Getenv("MARVIN_METRIC_EXPORTER"); v != "" {
		config.Observability.MetricExporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		config.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("MARVIN_METRICS_ADDR"); v != "" {
		config.Observability.MetricsAddr = v
	}
}

// Validate checks struct tags, then the cross-field rules tags cannot
// express.
//
// Outputs:
//   - error: Wraps ErrInvalidConfig if the configuration is invalid.
func (c FullConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Agent.ContextTreeDepth > predictor.MaxDepth {
		return fmt.Errorf("%w: context_tree_depth must be <= %d", ErrInvalidConfig, predictor.MaxDepth)
	}
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Observability.TraceExporter == "otlp" && c.Observability.OTLPEndpoint == "" {
		return fmt.Errorf("%w: otlp_endpoint is required for the otlp trace exporter", ErrInvalidConfig)
	}
	return nil
}
