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
	"github.com/emirpasic/gods/sets/treeset"

	"github.com/AleutianAI/marvin/services/aixi/types"
)

// nodeStats is the visit count and running mean return of a search node.
type nodeStats struct {
	visits uint64
	mean   float64
}

// record folds one sampled return into the running mean.
func (s *nodeStats) record(sample float64) {
	s.visits++
	s.mean += (sample - s.mean) / float64(s.visits)
}

// actionNode is a decision point: the agent picks one of its actions.
type actionNode struct {
	nodeStats
	children map[types.Action]*chanceNode
}

func newActionNode() *actionNode {
	return &actionNode{}
}

// child returns the chance node for a, creating it on first use.
func (n *actionNode) child(a types.Action) *chanceNode {
	if n.children == nil {
		n.children = make(map[types.Action]*chanceNode)
	}
	c, ok := n.children[a]
	if !ok {
		c = newChanceNode()
		n.children[a] = c
	}
	return c
}

// visitsOf returns the visit count of action a, zero if never taken.
func (n *actionNode) visitsOf(a types.Action) uint64 {
	if c, ok := n.children[a]; ok {
		return c.visits
	}
	return 0
}

// chanceNode follows an action: the environment answers with a percept.
type chanceNode struct {
	nodeStats
	children map[types.Percept]*actionNode
}

func newChanceNode() *chanceNode {
	return &chanceNode{}
}

// child returns the action node reached by percept p, creating it on
// first use.
func (n *chanceNode) child(p types.Percept) *actionNode {
	if n.children == nil {
		n.children = make(map[types.Percept]*actionNode)
	}
	c, ok := n.children[p]
	if !ok {
		c = newActionNode()
		n.children[p] = c
	}
	return c
}

// actionComparator orders actions ascending for treeset.
func actionComparator(a, b interface{}) int {
	x, y := a.(types.Action), b.(types.Action)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// newActionSet returns an empty, ordered set of actions. Drawing from an
// ordered set keeps tie-breaks reproducible under a fixed seed.
func newActionSet() *treeset.Set {
	return treeset.NewWith(actionComparator)
}
