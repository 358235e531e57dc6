// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package propagation_test

import (
	"testing"

	"github.com/ionovox/server/internal/propagation"
	"github.com/stretchr/testify/assert"
)

func TestSampleFadingBoundsAtFullStrength(t *testing.T) {
	t.Parallel()
	f := propagation.SampleFading(1.0, 1_700_000_000_000)
	assert.Equal(t, 0.0, f.PacketLossProbability)
	assert.Equal(t, 0.0, f.Jitter)
	assert.Equal(t, 0.0, f.NoiseFactor)
}

func TestSampleFadingBoundsAtZeroStrength(t *testing.T) {
	t.Parallel()
	for i := 0; i < 50; i++ {
		f := propagation.SampleFading(0.0, int64(i)*137)
		assert.GreaterOrEqual(t, f.PacketLossProbability, 0.0)
		assert.LessOrEqual(t, f.PacketLossProbability, 0.95)
		assert.Equal(t, 1.0, f.Jitter)
		assert.Equal(t, 1.0, f.NoiseFactor)
	}
}
