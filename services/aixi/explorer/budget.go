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
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Exhaustion reasons reported by RolloutBudget.ExhaustedBy.
const (
	ExhaustedByRollouts = "rollouts"
	ExhaustedByTime     = "time"
	ExhaustedByContext  = "context"
)

// RolloutBudget tracks how much planning a single decision may spend.
//
// Thread Safety: Safe for concurrent use.
type RolloutBudget struct {
	maxRollouts int
	timeLimit   time.Duration
	now         func() time.Time
	startTime   time.Time

	rollouts int64

	mu          sync.RWMutex
	exhausted   bool
	exhaustedBy string
}

// NewRolloutBudget creates a budget tracker that starts its clock now.
//
// Inputs:
//   - maxRollouts: Required rollout count, >= 1.
//   - timeLimit: Optional wall-clock limit. Zero disables it.
//
// Outputs:
//   - *RolloutBudget: Budget tracker, ready to use.
func NewRolloutBudget(maxRollouts int, timeLimit time.Duration) *RolloutBudget {
	return newRolloutBudgetWithClock(maxRollouts, timeLimit, time.Now)
}

func newRolloutBudgetWithClock(maxRollouts int, timeLimit time.Duration, now func() time.Time) *RolloutBudget {
	return &RolloutBudget{
		maxRollouts: maxRollouts,
		timeLimit:   timeLimit,
		now:         now,
		startTime:   now(),
	}
}

// Rollouts returns the number of completed rollouts.
func (b *RolloutBudget) Rollouts() int64 {
	return atomic.LoadInt64(&b.rollouts)
}

// RecordRollout records a completed rollout.
func (b *RolloutBudget) RecordRollout() int64 {
	return atomic.AddInt64(&b.rollouts, 1)
}

// Elapsed returns time elapsed since the budget was created.
func (b *RolloutBudget) Elapsed() time.Duration {
	return b.now().Sub(b.startTime)
}

// Exhausted reports whether planning must stop.
//
// Description:
//
//	A budget is never exhausted before its first rollout, so a decision
//	always rests on at least one simulation. After that the rollout
//	count, the time limit and ctx are checked in that order.
func (b *RolloutBudget) Exhausted(ctx context.Context) bool {
	b.mu.RLock()
	if b.exhausted {
		b.mu.RUnlock()
		return true
	}
	b.mu.RUnlock()

	return b.checkLimits(ctx) != nil
}

// ExhaustedBy returns which limit caused exhaustion (empty if not exhausted).
func (b *RolloutBudget) ExhaustedBy() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exhaustedBy
}

func (b *RolloutBudget) checkLimits(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rollouts := atomic.LoadInt64(&b.rollouts)
	if rollouts == 0 {
		return nil
	}

	if rollouts >= int64(b.maxRollouts) {
		b.exhausted = true
		b.exhaustedBy = ExhaustedByRollouts
		return ErrRolloutLimitReached
	}

	if b.timeLimit > 0 && b.Elapsed() >= b.timeLimit {
		b.exhausted = true
		b.exhaustedBy = ExhaustedByTime
		return ErrTimeLimitExceeded
	}

	if err := ctx.Err(); err != nil {
		b.exhausted = true
		b.exhaustedBy = ExhaustedByContext
		return err
	}

	return nil
}

// String returns a human-readable budget status.
func (b *RolloutBudget) String() string {
	status := ""
	if by := b.ExhaustedBy(); by != "" {
		status = fmt.Sprintf(" [EXHAUSTED by %s]", by)
	}
	return fmt.Sprintf("Budget{rollouts=%d/%d, time=%v/%v}%s",
		b.Rollouts(), b.maxRollouts,
		b.Elapsed().Round(time.Millisecond), b.timeLimit,
		status)
}
