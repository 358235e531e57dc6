// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package propagation

import (
	"math/rand"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// pairKey canonically orders a grid pair so (a,b) and (b,a) hit the same
// cache slot, per spec §3/§8's symmetry invariant.
type pairKey struct {
	a, b string
}

func canonicalPair(gridA, gridB string) pairKey {
	if gridA <= gridB {
		return pairKey{a: gridA, b: gridB}
	}
	return pairKey{a: gridB, b: gridA}
}

type pairCacheEntry struct {
	strength float64
	epoch    uint64
}

// pairCache memoizes pair signal strengths under the current ionospheric
// epoch. Entries are dropped wholesale on every epoch bump, and get also
// rejects any entry recorded under a different epoch, so a stale read is
// never observed (spec §8: "pair_cache size == 0 before any subsequent
// lookup completes").
type pairCache struct {
	m *xsync.Map[pairKey, pairCacheEntry]
}

func newPairCache() *pairCache {
	return &pairCache{m: xsync.NewMap[pairKey, pairCacheEntry]()}
}

func (c *pairCache) clear() {
	c.m.Clear()
}

func (c *pairCache) get(gridA, gridB string, epoch uint64) (float64, bool) {
	entry, ok := c.m.Load(canonicalPair(gridA, gridB))
	if !ok || entry.epoch != epoch {
		return 0, false
	}
	return entry.strength, true
}

func (c *pairCache) put(gridA, gridB string, strength float64, epoch uint64) {
	c.m.Store(canonicalPair(gridA, gridB), pairCacheEntry{strength: strength, epoch: epoch})
}

// PairCacheSize reports the number of memoized pairs, read by the metrics
// gauge and by tests asserting the cache empties on epoch change.
func (i *Ionosphere) PairCacheSize() int {
	n := 0
	i.pairs.m.Range(func(_ pairKey, _ pairCacheEntry) bool {
		n++
		return true
	})
	return n
}

// SignalStrength computes (or retrieves from cache) the six-factor signal
// strength score for the pair (gridA, gridB) at wall-clock time now, per
// spec §4.3. utcOffsetHours applies to both locations (single-timezone
// deployment simplification).
func (i *Ionosphere) SignalStrength(gridA, gridB string, now time.Time, utcOffsetHours float64) (float64, error) {
	s := i.Snapshot()

	if cached, ok := i.pairs.get(gridA, gridB, s.Epoch); ok {
		return cached, nil
	}

	coordA, err := DecodeGrid(gridA)
	if err != nil {
		return 0, err
	}
	coordB, err := DecodeGrid(gridB)
	if err != nil {
		return 0, err
	}

	strength := computeSignalStrength(coordA, coordB, s, now, utcOffsetHours)
	i.pairs.put(gridA, gridB, strength, s.Epoch)
	return strength, nil
}

func computeSignalStrength(a, b Coordinate, s Snapshot, now time.Time, utcOffsetHours float64) float64 {
	distance := HaversineKM(a, b)

	distanceFactor := clampFloat(1/(1+distance/1000), 0, 1)

	dayA := IsDaytime(a, now, utcOffsetHours)
	dayB := IsDaytime(b, now, utcOffsetHours)
	var timeOfDayFactor float64
	switch {
	case dayA && dayB:
		timeOfDayFactor = 1.0
	case !dayA && !dayB:
		timeOfDayFactor = 0.8
	default:
		timeOfDayFactor = 0.5
	}

	solarFactor := clampFloat(float64(s.SolarFluxIndex)/200, 0.1, 1.0)
	geomagneticFactor := clampFloat(1-float64(s.KIndex)/9, 0.1, 1.0)
	seasonFactor := signalSeasonFactor[s.Season]
	stochasticFactor := 0.8 + 0.2*rand.Float64()

	score := distanceFactor * timeOfDayFactor * solarFactor * geomagneticFactor * seasonFactor * stochasticFactor
	return clampFloat(score, 0, 1)
}
