// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package predictor

import (
	"testing"

	"github.com/AleutianAI/marvin/pkg/bitstring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func newTree(t *testing.T, depth int) *ContextTree {
	t.Helper()
	tree, err := NewContextTree(depth)
	require.NoError(t, err)
	return tree
}

func bits(s string) bitstring.Bitstring {
	return bitstring.MustFromString(s)
}

func TestNewContextTree_Size(t *testing.T) {
	tests := []struct {
		depth int
		size  int
	}{
		{0, 1},
		{1, 3},
		{3, 15},
		{10, 2047},
	}

	for _, tt := range tests {
		tree := newTree(t, tt.depth)
		assert.Equal(t, tt.size, tree.Size(), "depth %d", tt.depth)
		assert.Equal(t, tt.depth, tree.Depth())
		assert.Equal(t, 0, tree.HistorySize())
	}
}

func TestNewContextTree_InvalidDepth(t *testing.T) {
	_, err := NewContextTree(-1)
	assert.ErrorIs(t, err, ErrInvalidDepth)

	_, err = NewContextTree(MaxDepth + 1)
	assert.ErrorIs(t, err, ErrInvalidDepth)
}

func TestPredict_Empty(t *testing.T) {
	tree := newTree(t, 3)
	assert.Equal(t, 1.0, tree.Predict(bitstring.Empty()))

	tree.Update(bits("1011"))
	assert.Equal(t, 1.0, tree.Predict(bitstring.Empty()))
}

func TestPredict_UniformBeforeContext(t *testing.T) {
	tree := newTree(t, 3)
	assert.InDelta(t, 0.25, tree.Predict(bits("01")), tolerance)
	assert.InDelta(t, 0.125, tree.Predict(bits("100")), tolerance)
}

func TestPredict_AfterHistory(t *testing.T) {
	tree := newTree(t, 3)
	tree.Update(bits("10011110"))

	assert.InDelta(t, 0.050951086956, tree.Predict(bits("100")), tolerance)
	assert.Equal(t, 8, tree.HistorySize())
}

func TestPredict_BitProbabilitiesSumToOne(t *testing.T) {
	tree := newTree(t, 4)
	tree.Update(bits("110100111010001110"))

	p1 := tree.Predict(bits("1"))
	p0 := tree.Predict(bits("0"))
	assert.InDelta(t, 1.0, p0+p1, tolerance)
	assert.Greater(t, p1, 0.0)
	assert.Less(t, p1, 1.0)
}

func TestPredict_DepthZeroIsKT(t *testing.T) {
	tree := newTree(t, 0)
	assert.InDelta(t, 0.5, tree.Predict(bits("1")), tolerance)
	assert.InDelta(t, 0.375, tree.Predict(bits("11")), tolerance)
}

func TestPredict_LeavesStateUnchanged(t *testing.T) {
	tree := newTree(t, 3)
	tree.Update(bits("0110101"))
	before := tree.LogBlockProbability()
	history := tree.History().String()

	tree.Predict(bits("110011"))

	assert.Equal(t, before, tree.LogBlockProbability())
	assert.Equal(t, history, tree.History().String())
}

func TestRevert_RestoresExactState(t *testing.T) {
	tree := newTree(t, 3)
	tree.Update(bits("10011110"))

	nodes := append([]ctNode(nil), tree.nodes...)
	logP := tree.LogBlockProbability()

	tree.Update(bits("11010"))
	require.NoError(t, tree.RevertToHistorySize(8))

	assert.Equal(t, nodes, tree.nodes)
	assert.Equal(t, logP, tree.LogBlockProbability())
	assert.Equal(t, "10011110", tree.History().String())
	assert.Empty(t, tree.undo[5*(tree.depth+1):], "undo frames for reverted bits are discarded")
}

func TestRevert_IntoWarmup(t *testing.T) {
	tree := newTree(t, 3)
	empty := append([]ctNode(nil), tree.nodes...)

	tree.Update(bits("101101"))
	require.NoError(t, tree.RevertToHistorySize(1))

	assert.Equal(t, empty, tree.nodes)
	assert.Equal(t, "1", tree.History().String())
	assert.Equal(t, -1.0, tree.LogBlockProbability())
}

func TestRevert_NoOp(t *testing.T) {
	tree := newTree(t, 2)
	tree.Update(bits("0101"))
	logP := tree.LogBlockProbability()

	require.NoError(t, tree.RevertToHistorySize(4))
	assert.Equal(t, logP, tree.LogBlockProbability())
	assert.Equal(t, 4, tree.HistorySize())
}

func TestRevert_InvalidTarget(t *testing.T) {
	tree := newTree(t, 2)
	tree.Update(bits("01"))

	err := tree.RevertToHistorySize(3)
	assert.ErrorIs(t, err, ErrInvalidRevertTarget)
	assert.Equal(t, 2, tree.HistorySize())

	err = tree.RevertToHistorySize(-1)
	assert.ErrorIs(t, err, ErrInvalidRevertTarget)
}

func TestUpdate_LongHistoryStaysFinite(t *testing.T) {
	tree := newTree(t, 6)
	long := bitstring.New()
	for i := 0; i < 5000; i++ {
		long.Push(bitstring.Bit(i % 2))
	}
	tree.Update(long)

	p := tree.Predict(bits("0"))
	assert.False(t, p != p, "probability must not be NaN")
	assert.Greater(t, p, 0.99, "alternating sequence is highly predictable")
}
