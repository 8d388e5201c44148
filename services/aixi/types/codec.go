// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package types

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/AleutianAI/marvin/pkg/bitstring"
)

// ErrPerceptLength is returned when decoding a bit sequence whose length
// does not match PerceptBits.
var ErrPerceptLength = errors.New("percept encoding has wrong length")

// PerceptCodec converts actions and percepts to and from the fixed-width
// bit encoding fed to the predictor.
//
// Layout of a percept: ObservationBits bits of the observation followed by
// RewardBits bits of (reward - MinReward), both big-endian.
//
// Thread Safety: Immutable value, safe to share.
type PerceptCodec struct {
	info            EnvironmentInfo
	actionBits      int
	observationBits int
	rewardBits      int
}

// NewPerceptCodec derives bit widths from the environment description.
func NewPerceptCodec(info EnvironmentInfo) PerceptCodec {
	return PerceptCodec{
		info:            info,
		actionBits:      widthFor(int64(info.NumActions()) - 1),
		observationBits: widthFor(int64(info.NumObservations()) - 1),
		rewardBits:      widthFor(int64(info.RewardRange())),
	}
}

// widthFor returns the number of bits needed to represent every value in
// [0, maxValue]. At least one bit is always used.
func widthFor(maxValue int64) int {
	if maxValue <= 0 {
		return 1
	}
	return bits.Len64(uint64(maxValue))
}

func (c PerceptCodec) Info() EnvironmentInfo { return c.info }
func (c PerceptCodec) ActionBits() int       { return c.actionBits }
func (c PerceptCodec) ObservationBits() int  { return c.observationBits }
func (c PerceptCodec) RewardBits() int       { return c.rewardBits }

// PerceptBits is the total width of an encoded percept.
func (c PerceptCodec) PerceptBits() int {
	return c.observationBits + c.rewardBits
}

// EncodeAction encodes a valid action.
func (c PerceptCodec) EncodeAction(a Action) (bitstring.Bitstring, error) {
	if !c.info.ValidAction(a) {
		return bitstring.Bitstring{}, fmt.Errorf("encode action %d: out of range [0, %d)", a, c.info.NumActions())
	}
	return bitstring.FromUint64Width(uint64(a), c.actionBits)
}

// EncodePercept encodes an observation/reward pair.
func (c PerceptCodec) EncodePercept(p Percept) (bitstring.Bitstring, error) {
	if p.Observation < 0 || int16(p.Observation) >= c.info.NumObservations() {
		return bitstring.Bitstring{}, fmt.Errorf("encode observation %d: out of range [0, %d)", p.Observation, c.info.NumObservations())
	}
	if p.Reward < c.info.MinReward() || p.Reward > c.info.MaxReward() {
		return bitstring.Bitstring{}, fmt.Errorf("encode reward %d: out of range [%d, %d]", p.Reward, c.info.MinReward(), c.info.MaxReward())
	}

	out, err := bitstring.FromUint64Width(uint64(p.Observation), c.observationBits)
	if err != nil {
		return bitstring.Bitstring{}, fmt.Errorf("encode observation: %w", err)
	}
	reward, err := bitstring.FromUint64Width(uint64(p.Reward-c.info.MinReward()), c.rewardBits)
	if err != nil {
		return bitstring.Bitstring{}, fmt.Errorf("encode reward: %w", err)
	}
	out.Append(reward)
	return out, nil
}

// DecodePercept is the inverse of EncodePercept.
//
// Description:
//
//	Because widths are rounded up to whole bits, a sampled encoding may
//	name a value outside the environment's range. Observations are
//	wrapped into [0, NumObservations) and rewards clamped to MaxReward so
//	that decoded percepts are always legal.
func (c PerceptCodec) DecodePercept(b bitstring.Bitstring) (Percept, error) {
	if b.Len() != c.PerceptBits() {
		return Percept{}, fmt.Errorf("%w: got %d, want %d", ErrPerceptLength, b.Len(), c.PerceptBits())
	}

	var obs, reward uint64
	for i := 0; i < c.observationBits; i++ {
		obs = obs<<1 | uint64(b.Bit(i))
	}
	for i := c.observationBits; i < b.Len(); i++ {
		reward = reward<<1 | uint64(b.Bit(i))
	}

	if n := uint64(c.info.NumObservations()); n > 0 && obs >= n {
		obs %= n
	}
	r := int64(c.info.MinReward()) + int64(reward)
	if r > int64(c.info.MaxReward()) {
		r = int64(c.info.MaxReward())
	}

	return Percept{Observation: Observation(obs), Reward: SingleReward(r)}, nil
}
