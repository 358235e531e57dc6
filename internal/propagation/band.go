// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package propagation

// bandLadder is the fixed step-down ladder used for long-haul band
// recommendation, highest frequency (shortest wavelength) first.
var bandLadder = []int{10, 12, 15, 17, 20, 30, 40, 80, 160}

// RecommendBand returns the recommended amateur-radio band (in meters) for
// a given path distance (km) under the current ionospheric state, per spec
// §4.3's three-tier rule. Retained as-is per spec §9's Open Question:
// distances under 500 km always answer 20 m regardless of MUF.
func (i *Ionosphere) RecommendBand(distanceKM float64) int {
	switch {
	case distanceKM < 500:
		return 20
	case distanceKM < 2000:
		muf := i.MUF(distanceKM)
		switch {
		case muf > 21:
			return 15
		case muf > 14:
			return 20
		default:
			return 40
		}
	default:
		muf := i.MUF(distanceKM)
		switch {
		case muf > 28:
			return 10
		case muf > 24:
			return 12
		case muf > 21:
			return 15
		case muf > 18:
			return 17
		case muf > 14:
			return 20
		case muf > 10:
			return 30
		case muf > 7:
			return 40
		case muf > 3.5:
			return 80
		default:
			return 160
		}
	}
}
