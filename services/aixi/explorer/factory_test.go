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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/marvin/services/aixi/random"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

func TestRandomExplorer(t *testing.T) {
	_, err := NewRandomExplorer(nil)
	assert.ErrorIs(t, err, ErrNilRandom)

	e, err := NewRandomExplorer(random.Fixed{Value: 5})
	require.NoError(t, err)

	a, err := e.Explore(context.Background(), types.NewEnvironmentInfo(3, 1, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, types.Action(2), a)

	_, err = e.Explore(context.Background(), types.NewEnvironmentInfo(0, 1, 0, 1))
	assert.ErrorIs(t, err, ErrNoActions)
}

func TestDefaultFactory_Reproducible(t *testing.T) {
	decide := func() []types.Action {
		f := NewDefaultFactory(random.NewSource(99), testConfig(20))
		var out []types.Action
		for i := 0; i < 4; i++ {
			mc, err := f.NewMonteCarlo(&uniformPredictor{})
			require.NoError(t, err)
			a, err := mc.Explore(context.Background(), coinFlipInfo)
			require.NoError(t, err)
			out = append(out, a)

			r, err := f.NewRandom()
			require.NoError(t, err)
			a, err = r.Explore(context.Background(), coinFlipInfo)
			require.NoError(t, err)
			out = append(out, a)
		}
		return out
	}

	assert.Equal(t, decide(), decide())
}

func TestDefaultFactory_PropagatesConfigErrors(t *testing.T) {
	cfg := testConfig(0)
	f := NewDefaultFactory(random.NewSource(1), cfg)

	_, err := f.NewMonteCarlo(&uniformPredictor{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
