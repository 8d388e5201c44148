// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package predictor implements sequential bit prediction over the agent's
// history. The production implementation is a Context Tree Weighting model.
package predictor

import (
	"errors"

	"github.com/AleutianAI/marvin/pkg/bitstring"
)

// Sentinel errors for the predictor package.
var (
	// ErrInvalidRevertTarget is returned when asked to revert to a history
	// size larger than the current one.
	ErrInvalidRevertTarget = errors.New("revert target exceeds history size")

	// ErrInvalidDepth is returned for a negative or unreasonably large
	// context depth.
	ErrInvalidDepth = errors.New("invalid context tree depth")
)

// Predictor models the probability of upcoming bits given everything it
// has been updated with so far.
//
// Description:
//
//	Update commits bits to the history. RevertToHistorySize undoes the
//	most recent commits, restoring the model to exactly the state it had
//	at that size. Predict returns P(bits | history) and leaves the model
//	observably unchanged.
//
// Thread Safety: Implementations are not required to be safe for
// concurrent use. A predictor has exactly one owner at a time.
type Predictor interface {
	HistorySize() int
	Update(bits bitstring.Bitstring)
	RevertToHistorySize(target int) error
	Predict(bits bitstring.Bitstring) float64
}
