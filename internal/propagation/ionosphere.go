// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package propagation

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Season enumerates the four meteorological seasons used by the foF2/height
// derivatives and the signal-strength season factor.
type Season int

const (
	SeasonWinter Season = iota
	SeasonSpring
	SeasonSummer
	SeasonFall
)

var foF2SeasonFactor = [4]float64{0.8, 1.0, 1.2, 1.0}
var heightSeasonFactor = [4]float64{1.1, 1.0, 0.9, 1.0}
var signalSeasonFactor = [4]float64{0.7, 0.9, 1.0, 0.8}

// Ionosphere is the process-wide ionospheric state described by spec §3/§4.3.
// Every mutation is fenced by an epoch counter; readers that cache anything
// derived from the state must record the epoch they computed it under.
type Ionosphere struct {
	mu    sync.RWMutex
	sfi   int
	k     int
	sea   Season
	epoch uint64

	group singleflight.Group
	pairs *pairCache

	onEpochBump func(epoch uint64)
}

// NewIonosphere constructs ionospheric state from config-provided initial
// values, wiring onEpochBump to be called (outside the state lock) whenever
// SFI/K/season mutate.
func NewIonosphere(sfi, k int, season Season, onEpochBump func(epoch uint64)) *Ionosphere {
	return &Ionosphere{
		sfi:         sfi,
		k:           k,
		sea:         season,
		pairs:       newPairCache(),
		onEpochBump: onEpochBump,
	}
}

// Snapshot is an immutable read of the ionospheric state at a point in time.
type Snapshot struct {
	SolarFluxIndex int
	KIndex         int
	Season         Season
	Epoch          uint64
}

// Snapshot returns the current ionospheric state under the read lock.
func (i *Ionosphere) Snapshot() Snapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return Snapshot{SolarFluxIndex: i.sfi, KIndex: i.k, Season: i.sea, Epoch: i.epoch}
}

// Epoch returns the current ionospheric epoch.
func (i *Ionosphere) Epoch() uint64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.epoch
}

// bump increments the epoch, clears the pair cache, and invokes the
// registered callback outside the lock. Per spec §5, epoch increments
// happen-before any downstream notification or cache population keyed on
// that epoch.
func (i *Ionosphere) bump() uint64 {
	i.mu.Lock()
	i.epoch++
	epoch := i.epoch
	i.mu.Unlock()

	i.pairs.clear()

	if i.onEpochBump != nil {
		i.onEpochBump(epoch)
	}
	return epoch
}

// SetSolarFluxIndex mutates SFI (clamped to [60,300]) and bumps the epoch.
func (i *Ionosphere) SetSolarFluxIndex(sfi int) uint64 {
	sfi = clampInt(sfi, 60, 300)
	i.mu.Lock()
	i.sfi = sfi
	i.mu.Unlock()
	return i.bump()
}

// SetKIndex mutates K (clamped to [0,9]) and bumps the epoch.
func (i *Ionosphere) SetKIndex(k int) uint64 {
	k = clampInt(k, 0, 9)
	i.mu.Lock()
	i.k = k
	i.mu.Unlock()
	return i.bump()
}

// SetSeason mutates the season and bumps the epoch.
func (i *Ionosphere) SetSeason(s Season) uint64 {
	i.mu.Lock()
	i.sea = s
	i.mu.Unlock()
	return i.bump()
}

// ApplyExternalUpdate is the callback external solar-weather ingestion
// (out of scope; HTTP fetchers) invokes. It shares the same epoch-bump path
// as the periodic ticker so both sources obey one invalidation rule.
func (i *Ionosphere) ApplyExternalUpdate(ctx context.Context, sfi, k int) uint64 {
	sfi = clampInt(sfi, 60, 300)
	k = clampInt(k, 0, 9)
	i.mu.Lock()
	changed := i.sfi != sfi || i.k != k
	i.sfi = sfi
	i.k = k
	i.mu.Unlock()
	if !changed {
		return i.Epoch()
	}
	epoch := i.bump()
	slog.DebugContext(ctx, "applied external ionospheric update", "sfi", sfi, "k_index", k, "epoch", epoch)
	return epoch
}

// Tick runs the periodic ionospheric refresh. Per spec §5, a tick arriving
// while the previous tick is still running is coalesced rather than queued.
func (i *Ionosphere) Tick(ctx context.Context, refresh func(ctx context.Context) (sfi, k int, season Season, changed bool, err error)) error {
	_, err, _ := i.group.Do("tick", func() (interface{}, error) {
		sfi, k, season, changed, err := refresh(ctx)
		if err != nil {
			return nil, err
		}
		if !changed {
			return nil, nil
		}
		i.mu.Lock()
		i.sfi = clampInt(sfi, 60, 300)
		i.k = clampInt(k, 0, 9)
		i.sea = season
		i.mu.Unlock()
		i.bump()
		return nil, nil
	})
	return err
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FoF2 returns the critical frequency of the ionospheric F2 layer (MHz) for
// the current state, per spec §4.3.
func (i *Ionosphere) FoF2() float64 {
	s := i.Snapshot()
	return foF2(s.SolarFluxIndex, s.KIndex, s.Season)
}

func foF2(sfi, k int, season Season) float64 {
	solarFactor := 1 + (float64(sfi)-100)/100
	geomagneticFactor := 1 - 0.5*float64(k)/9
	return 5.0 * solarFactor * geomagneticFactor * foF2SeasonFactor[season]
}

// FLayerHeight returns the F-layer height (km) for the current state.
func (i *Ionosphere) FLayerHeight() float64 {
	s := i.Snapshot()
	return fLayerHeight(s.SolarFluxIndex, s.KIndex, s.Season)
}

func fLayerHeight(sfi, k int, season Season) float64 {
	return 300 * (1 + (float64(sfi)-100)/200) * (1 + 0.2*float64(k)/9) * heightSeasonFactor[season]
}

// MUF returns the maximum usable frequency (MHz) for a given hop distance
// (km), per spec §4.3.
func (i *Ionosphere) MUF(distanceKM float64) float64 {
	s := i.Snapshot()
	return muf(distanceKM, foF2(s.SolarFluxIndex, s.KIndex, s.Season), fLayerHeight(s.SolarFluxIndex, s.KIndex, s.Season))
}

func muf(distanceKM, fof2, height float64) float64 {
	if distanceKM <= 0 {
		return fof2
	}
	hops := math.Ceil(distanceKM / (2 * math.Sqrt(height*2*EarthRadiusKM)))
	if hops < 1 {
		hops = 1
	}
	takeoff := math.Atan(height / (distanceKM / (2 * hops)))
	cosTheta := math.Cos(takeoff)
	if cosTheta <= 0 {
		return fof2
	}
	return fof2 / cosTheta
}

// SolarZenith returns the solar zenith angle (degrees) for a coordinate at
// the given wall-clock time and UTC offset in hours, per spec §4.3.
func SolarZenith(c Coordinate, t time.Time, utcOffsetHours float64) float64 {
	doy := float64(t.YearDay())
	declination := 23.45 * math.Sin(2*math.Pi*(284+doy)/365) * math.Pi / 180

	hour := float64(t.Hour()) + float64(t.Minute())/60
	tzCorrectionMinutes := 4*c.Lon - 60*utcOffsetHours
	hourAngleDeg := 15 * (hour + tzCorrectionMinutes/60 - 12)
	hourAngle := degToRad(hourAngleDeg)

	phi := degToRad(c.Lat)
	cosZenith := math.Sin(phi)*math.Sin(declination) + math.Cos(phi)*math.Cos(declination)*math.Cos(hourAngle)
	cosZenith = clampFloat(cosZenith, -1, 1)
	return math.Acos(cosZenith) * 180 / math.Pi
}

// IsDaytime reports whether the solar zenith angle at c and t is below 90°.
func IsDaytime(c Coordinate, t time.Time, utcOffsetHours float64) bool {
	return SolarZenith(c, t, utcOffsetHours) < 90
}
