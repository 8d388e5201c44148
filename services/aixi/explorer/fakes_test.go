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
	"math"

	"github.com/AleutianAI/marvin/pkg/bitstring"
	"github.com/AleutianAI/marvin/services/aixi/predictor"
)

// uniformPredictor assigns probability 2^-len to every sequence.
type uniformPredictor struct {
	size    int
	reverts int
}

func (p *uniformPredictor) HistorySize() int { return p.size }

func (p *uniformPredictor) Update(bits bitstring.Bitstring) { p.size += bits.Len() }

func (p *uniformPredictor) RevertToHistorySize(target int) error {
	if target > p.size {
		return predictor.ErrInvalidRevertTarget
	}
	p.size = target
	p.reverts++
	return nil
}

func (p *uniformPredictor) Predict(bits bitstring.Bitstring) float64 {
	return math.Exp2(-float64(bits.Len()))
}

// echoPredictor models a world with 1 action bit and 2 percept bits per
// cycle where every percept bit equals the action bit of its cycle. Taking
// action 1 is therefore always rewarded.
type echoPredictor struct {
	history []bitstring.Bit
}

func (p *echoPredictor) HistorySize() int { return len(p.history) }

func (p *echoPredictor) Update(bits bitstring.Bitstring) {
	p.history = append(p.history, bits.Bits()...)
}

func (p *echoPredictor) RevertToHistorySize(target int) error {
	if target > len(p.history) {
		return predictor.ErrInvalidRevertTarget
	}
	p.history = p.history[:target]
	return nil
}

func (p *echoPredictor) Predict(bits bitstring.Bitstring) float64 {
	pos := len(p.history)
	if pos%3 == 0 || bits.Len() != 1 {
		return math.Exp2(-float64(bits.Len()))
	}
	action := p.history[pos-pos%3]
	if bits.Bit(0) == action {
		return 1
	}
	return 0
}
