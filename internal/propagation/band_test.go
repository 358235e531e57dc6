// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package propagation_test

import (
	"testing"

	"github.com/ionovox/server/internal/propagation"
	"github.com/stretchr/testify/assert"
)

func TestRecommendBandUnder500KMAlwaysTwentyMeters(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(300, 0, propagation.SeasonSummer, nil)
	assert.Equal(t, 20, iono.RecommendBand(400))
}

func TestRecommendBandLongHaulHighMUF(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(200, 1, propagation.SeasonSummer, nil)
	band := iono.RecommendBand(3000)
	assert.Contains(t, []int{10, 12}, band)
}

func TestRecommendBandLongHaulLowMUF(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(60, 9, propagation.SeasonWinter, nil)
	band := iono.RecommendBand(10000)
	assert.Contains(t, []int{80, 160}, band)
}
