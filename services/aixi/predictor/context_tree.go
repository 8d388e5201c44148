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
	"fmt"
	"math"

	"github.com/AleutianAI/marvin/pkg/bitstring"
)

// MaxDepth bounds the context depth. The tree is fully allocated, so a
// depth of d costs 2^(d+1)-1 nodes.
const MaxDepth = 24

const noChild = -1

// ctNode is one context in the tree. Children are arena indices.
type ctNode struct {
	counts      [2]uint32
	logKT       float64
	logWeighted float64
	children    [2]int32
}

func (n *ctNode) isLeaf() bool {
	return n.children[0] == noChild
}

// traversal selects what walkPath does at each node on the path.
type traversal uint8

const (
	opApply traversal = iota
	opUndo
)

// ContextTree is a binary Context Tree Weighting predictor of fixed depth.
//
// Description:
//
//	Every node holds symbol counts, the log2 Krichevsky-Trofimov estimate
//	for those counts, and the log2 weighted probability mixing its own
//	estimate with its children's. The context for the next bit is the
//	last Depth bits of history, most recent first, read from the root.
//
//	The first Depth bits have no full context. They are appended to the
//	history without touching the tree and are accounted as uniform, one
//	bit of code length each.
//
//	Every committed update pushes one undo frame holding the previous KT
//	estimates along its path, so reverting restores the tree bit-exactly.
//
// Thread Safety: Not safe for concurrent use.
type ContextTree struct {
	depth   int
	nodes   []ctNode
	history bitstring.Bitstring

	// undo is a stack of frames, depth+1 saved logKT values per frame,
	// ordered root first.
	undo []float64

	// path is scratch space for the current root-to-leaf walk.
	path []int32
}

// NewContextTree allocates a full tree of the given depth.
//
// Inputs:
//   - depth: Context length in bits. Must be in [0, MaxDepth].
//
// Outputs:
//   - *ContextTree: Empty model. Size() is 2^(depth+1)-1.
//   - error: ErrInvalidDepth if depth is out of range.
func NewContextTree(depth int) (*ContextTree, error) {
	if depth < 0 || depth > MaxDepth {
		return nil, fmt.Errorf("%w: %d (allowed 0..%d)", ErrInvalidDepth, depth, MaxDepth)
	}

	size := 1<<(depth+1) - 1
	internal := 1<<depth - 1
	nodes := make([]ctNode, size)
	for i := range nodes {
		if i < internal {
			nodes[i].children = [2]int32{int32(2*i + 1), int32(2*i + 2)}
		} else {
			nodes[i].children = [2]int32{noChild, noChild}
		}
	}

	return &ContextTree{
		depth: depth,
		nodes: nodes,
		path:  make([]int32, depth+1),
	}, nil
}

// Depth returns the context length.
func (t *ContextTree) Depth() int { return t.depth }

// Size returns the number of nodes in the tree.
func (t *ContextTree) Size() int { return len(t.nodes) }

// HistorySize returns the number of bits committed so far.
func (t *ContextTree) HistorySize() int { return t.history.Len() }

// History returns a copy of the committed bits.
func (t *ContextTree) History() bitstring.Bitstring { return t.history.Clone() }

// LogBlockProbability returns log2 P(history) under the model.
func (t *ContextTree) LogBlockProbability() float64 {
	return t.nodes[0].logWeighted - float64(min(t.history.Len(), t.depth))
}

// Update commits bits to the history, updating the tree for each bit in
// order.
func (t *ContextTree) Update(bits bitstring.Bitstring) {
	for i := 0; i < bits.Len(); i++ {
		t.updateBit(bits.Bit(i))
	}
}

func (t *ContextTree) updateBit(bit bitstring.Bit) {
	if t.history.Len() >= t.depth {
		t.walkPath(bit, opApply)
	}
	t.history.Push(bit)
}

// RevertToHistorySize undoes commits until HistorySize() == target.
//
// Outputs:
//   - error: ErrInvalidRevertTarget if target is negative or larger than
//     the current history. Reverting to the current size is a no-op.
func (t *ContextTree) RevertToHistorySize(target int) error {
	if target < 0 || target > t.history.Len() {
		return fmt.Errorf("%w: target %d, history %d", ErrInvalidRevertTarget, target, t.history.Len())
	}
	for t.history.Len() > target {
		bit, err := t.history.Pop()
		if err != nil {
			return fmt.Errorf("revert: %w", err)
		}
		if t.history.Len() >= t.depth {
			t.walkPath(bit, opUndo)
		}
	}
	return nil
}

// Predict returns P(bits | history). The model is left as it was.
//
// Description:
//
//	The bits are applied, the change in log block probability is read,
//	and the tree is reverted to its previous size. An empty sequence has
//	probability 1.
func (t *ContextTree) Predict(bits bitstring.Bitstring) float64 {
	if bits.Len() == 0 {
		return 1
	}
	before := t.LogBlockProbability()
	size := t.history.Len()

	t.Update(bits)
	after := t.LogBlockProbability()
	// Cannot fail: size <= HistorySize by construction.
	_ = t.RevertToHistorySize(size)

	return math.Exp2(after - before)
}

// walkPath applies or undoes one bit along the context path selected by
// the current history, then recomputes weighted probabilities leaf to root.
func (t *ContextTree) walkPath(bit bitstring.Bit, op traversal) {
	n := t.history.Len()
	idx := int32(0)
	t.path[0] = 0
	for level := 0; level < t.depth; level++ {
		idx = t.nodes[idx].children[t.history.Bit(n-1-level)]
		t.path[level+1] = idx
	}

	stride := t.depth + 1
	var frame []float64
	switch op {
	case opApply:
		for _, i := range t.path {
			t.undo = append(t.undo, t.nodes[i].logKT)
		}
	case opUndo:
		base := len(t.undo) - stride
		frame = t.undo[base:]
		t.undo = t.undo[:base]
	}

	for level := t.depth; level >= 0; level-- {
		node := &t.nodes[t.path[level]]
		switch op {
		case opApply:
			total := node.counts[0] + node.counts[1]
			node.logKT += math.Log2(float64(node.counts[bit])+0.5) - math.Log2(float64(total)+1)
			node.counts[bit]++
		case opUndo:
			node.counts[bit]--
			node.logKT = frame[level]
		}
		t.reweigh(node)
	}
}

// reweigh recomputes a node's weighted probability from its own estimate
// and its children's.
func (t *ContextTree) reweigh(node *ctNode) {
	if node.isLeaf() {
		node.logWeighted = node.logKT
		return
	}
	children := t.nodes[node.children[0]].logWeighted + t.nodes[node.children[1]].logWeighted
	x := children - node.logKT
	mix := math.Exp2(x)
	if math.IsInf(mix, 1) {
		// log2(1 + 2^x) ~= x once 2^x overflows.
		node.logWeighted = node.logKT + x - 1
		return
	}
	node.logWeighted = node.logKT + math.Log2(1+mix) - 1
}

var _ Predictor = (*ContextTree)(nil)
