// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package propagation_test

import (
	"math"
	"testing"

	"github.com/ionovox/server/internal/propagation"
	"github.com/stretchr/testify/assert"
)

func TestHaversineIdenticalGridsIsZero(t *testing.T) {
	t.Parallel()
	c := propagation.Coordinate{Lat: 51.5, Lon: -0.1}
	assert.InDelta(t, 0, propagation.HaversineKM(c, c), 1e-6)
}

func TestHaversineAntipodal(t *testing.T) {
	t.Parallel()
	a := propagation.Coordinate{Lat: 10, Lon: 20}
	b := propagation.Coordinate{Lat: -10, Lon: -160}
	got := propagation.HaversineKM(a, b)
	want := math.Pi * propagation.EarthRadiusKM
	assert.InDelta(t, want, got, 1.0)
}

func TestHaversineKnownDistance(t *testing.T) {
	t.Parallel()
	// Oslo (JO59) to New York (FN31) is roughly 5900 km.
	oslo := propagation.Coordinate{Lat: 59.91, Lon: 10.75}
	nyc := propagation.Coordinate{Lat: 40.71, Lon: -74.0}
	got := propagation.HaversineKM(oslo, nyc)
	assert.InDelta(t, 5870, got, 200)
}
