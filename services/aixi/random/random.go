// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package random provides the uniform random-source capability used by the
// planner, the agent and the toy environments, plus deterministic doubles
// for tests.
package random

import (
	"fmt"
	mrand "math/rand/v2"
)

// Random yields uniform integers.
//
// NextModulo returns a value in [0, limit). A limit of zero is a programming
// error and panics.
type Random interface {
	NextModulo(limit uint64) uint64
}

// float64Denominator is 2^53, the number of distinct float64 mantissas in [0, 1).
const float64Denominator = 1 << 53

// Float64 draws a uniform value in [0, 1) from r.
func Float64(r Random) float64 {
	return float64(r.NextModulo(float64Denominator)) / float64Denominator
}

// Source is the seeded production generator.
//
// Description:
//
//	Source wraps a PCG generator. Two sources built from the same seed
//	produce identical draws, which makes whole agent runs reproducible.
//
// Thread Safety: Not safe for concurrent use. Use NewChild to hand a
// separate stream to each goroutine.
type Source struct {
	seed uint64
	rng  *mrand.Rand
}

// NewSource creates a Source from seed.
func NewSource(seed uint64) *Source {
	return &Source{
		seed: seed,
		rng:  mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Seed returns the seed the source was built from.
func (s *Source) Seed() uint64 {
	return s.seed
}

// NextModulo implements Random.
func (s *Source) NextModulo(limit uint64) uint64 {
	if limit == 0 {
		panic("random: NextModulo called with limit 0")
	}
	return s.rng.Uint64N(limit)
}

// NewChild returns an independent Source seeded from the next draw of s.
func (s *Source) NewChild() *Source {
	return NewSource(s.rng.Uint64())
}

// Fixed always returns Value % limit.
type Fixed struct {
	Value uint64
}

// NextModulo implements Random.
func (f Fixed) NextModulo(limit uint64) uint64 {
	if limit == 0 {
		panic("random: NextModulo called with limit 0")
	}
	return f.Value % limit
}

// Sequence replays scripted draws in order, each reduced modulo the limit
// passed in. After the script is exhausted it cycles from the start.
//
// Thread Safety: Not safe for concurrent use.
type Sequence struct {
	values []uint64
	next   int
	calls  int
}

// NewSequence creates a Sequence. At least one value is required.
func NewSequence(values ...uint64) *Sequence {
	if len(values) == 0 {
		panic("random: NewSequence needs at least one value")
	}
	return &Sequence{values: append([]uint64(nil), values...)}
}

// NextModulo implements Random.
func (s *Sequence) NextModulo(limit uint64) uint64 {
	if limit == 0 {
		panic("random: NextModulo called with limit 0")
	}
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	s.calls++
	return v % limit
}

// Calls reports how many draws have been made.
func (s *Sequence) Calls() int {
	return s.calls
}

// String describes the sequence for test failure output.
func (s *Sequence) String() string {
	return fmt.Sprintf("Sequence(%v, next=%d)", s.values, s.next)
}
