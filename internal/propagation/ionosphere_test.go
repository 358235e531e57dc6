// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package propagation_test

import (
	"context"
	"testing"
	"time"

	"github.com/ionovox/server/internal/propagation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalStrengthKIndexNineClampsGeomagneticFactor(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(120, 9, propagation.SeasonWinter, nil)
	s, err := iono.SignalStrength("JO59jw", "FN31pr", time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.Greater(t, s, 0.0, "k=9 must not zero out the signal entirely")
}

func TestPairCacheSymmetric(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(120, 3, propagation.SeasonWinter, nil)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	ab, err := iono.SignalStrength("JO59jw", "FN31pr", now, 0)
	require.NoError(t, err)
	ba, err := iono.SignalStrength("FN31pr", "JO59jw", now, 0)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestEpochBumpClearsPairCache(t *testing.T) {
	t.Parallel()
	var bumped uint64
	iono := propagation.NewIonosphere(120, 3, propagation.SeasonWinter, func(epoch uint64) {
		bumped = epoch
	})
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	_, err := iono.SignalStrength("JO59jw", "FN31pr", now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, iono.PairCacheSize())

	iono.SetSolarFluxIndex(200)
	assert.Equal(t, 0, iono.PairCacheSize())
	assert.Equal(t, uint64(1), bumped)
}

func TestSetSolarFluxIndexClamped(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(120, 2, propagation.SeasonWinter, nil)
	iono.SetSolarFluxIndex(1000)
	assert.Equal(t, 300, iono.Snapshot().SolarFluxIndex)
	iono.SetSolarFluxIndex(-50)
	assert.Equal(t, 60, iono.Snapshot().SolarFluxIndex)
}

func TestSetKIndexClamped(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(120, 2, propagation.SeasonWinter, nil)
	iono.SetKIndex(99)
	assert.Equal(t, 9, iono.Snapshot().KIndex)
	iono.SetKIndex(-3)
	assert.Equal(t, 0, iono.Snapshot().KIndex)
}

func TestTickCoalescesConcurrentCalls(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(120, 2, propagation.SeasonWinter, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	refresh := func(ctx context.Context) (int, int, propagation.Season, bool, error) {
		calls++
		close(started)
		<-release
		return 150, 4, propagation.SeasonSpring, true, nil
	}

	done := make(chan error, 2)
	go func() { done <- iono.Tick(context.Background(), refresh) }()
	<-started

	go func() { done <- iono.Tick(context.Background(), refresh) }()
	close(release)

	require.NoError(t, <-done)
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls, "a tick arriving mid-recompute must be coalesced, not queued")
}

func TestApplyExternalUpdateBumpsEpochOnChange(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(120, 2, propagation.SeasonWinter, nil)
	before := iono.Epoch()
	iono.ApplyExternalUpdate(context.Background(), 150, 4)
	assert.Greater(t, iono.Epoch(), before)

	after := iono.Epoch()
	iono.ApplyExternalUpdate(context.Background(), 150, 4)
	assert.Equal(t, after, iono.Epoch(), "no-op update must not bump the epoch")
}

func TestIsDaytimeBoundary(t *testing.T) {
	t.Parallel()
	noon := propagation.Coordinate{Lat: 0, Lon: 0}
	midday := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	assert.True(t, propagation.IsDaytime(noon, midday, 0))
	assert.False(t, propagation.IsDaytime(noon, midnight, 0))
}
