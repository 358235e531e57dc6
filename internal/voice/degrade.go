// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package voice

import (
	"math"
	"math/rand"
	"time"

	"github.com/ionovox/server/internal/propagation"
	"github.com/ionovox/server/internal/session"
)

// minAudibleSignal is the signal-strength floor below which a packet is
// dropped outright for a receiver, per spec §4.4 step 3.
const minAudibleSignal = 0.05

// pairEffect computes the per-pair effect for one (speaker, receiver) pair
// at wall-clock time now, per spec §4.4's per-pair effects pipeline.
func (r *Router) pairEffect(speaker, receiver *session.Session, now time.Time) (Effect, error) {
	gridS := speaker.GridLocator()
	gridR := receiver.GridLocator()

	// A missing locator on either side leaves nothing to compute a path
	// loss between, so the pair passes through untouched (spec §4.4 step 1).
	if gridS == "" || gridR == "" {
		return Effect{Volume: 1}, nil
	}
	if r.ionosphere == nil {
		return Effect{Volume: 1}, nil
	}

	s, err := r.ionosphere.SignalStrength(gridS, gridR, now, r.utcOffset)
	if err != nil {
		return Effect{}, err
	}
	if s < minAudibleSignal {
		return Effect{Drop: true}, nil
	}

	fading := propagation.SampleFading(s, now.UnixMilli())
	if rand.Float64() < fading.PacketLossProbability {
		return Effect{Drop: true}, nil
	}
	return Effect{Jitter: fading.Jitter, NoiseFactor: fading.NoiseFactor, Volume: 1}, nil
}

// logarithmicGain maps a listener binding's volume factor to a logarithmic
// gain curve where factor == 1 (the identity binding new bindings start at)
// reproduces unity gain, matching the multiplicative curve at that point.
func logarithmicGain(factor float64) float64 {
	if factor <= 0 {
		return 0
	}
	return math.Log2(1 + factor)
}
