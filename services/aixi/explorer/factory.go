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
	"github.com/AleutianAI/marvin/services/aixi/predictor"
	"github.com/AleutianAI/marvin/services/aixi/random"
)

// Factory produces a fresh explorer for every decision.
type Factory interface {
	NewMonteCarlo(p predictor.Predictor) (Explorer, error)
	NewRandom() (Explorer, error)
}

// DefaultFactory builds explorers whose random streams are children of a
// single seeded Source, so a whole run is reproducible from one seed.
//
// Thread Safety: Not safe for concurrent use.
type DefaultFactory struct {
	source *random.Source
	config PlannerConfig
	opts   []Option
}

// NewDefaultFactory creates a DefaultFactory.
//
// Inputs:
//   - source: Parent random source. Each explorer gets source.NewChild().
//   - config: Planner settings for Monte Carlo explorers.
//   - opts: Options applied to every Monte Carlo explorer.
func NewDefaultFactory(source *random.Source, config PlannerConfig, opts ...Option) *DefaultFactory {
	return &DefaultFactory{source: source, config: config, opts: opts}
}

// NewMonteCarlo implements Factory.
func (f *DefaultFactory) NewMonteCarlo(p predictor.Predictor) (Explorer, error) {
	return NewMonteCarloExplorer(p, f.source.NewChild(), f.config, f.opts...)
}

// NewRandom implements Factory.
func (f *DefaultFactory) NewRandom() (Explorer, error) {
	return NewRandomExplorer(f.source.NewChild())
}

var _ Factory = (*DefaultFactory)(nil)
