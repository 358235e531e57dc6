// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package propagation_test

import (
	"testing"
	"time"

	"github.com/ionovox/server/internal/propagation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalStrengthScenarioOsloNewYorkWinterMidday(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(120, 3, propagation.SeasonWinter, nil)
	midday := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	s, err := iono.SignalStrength("JO59jw", "FN31pr", midday, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)
}

func TestSignalStrengthInvalidGridReturnsError(t *testing.T) {
	t.Parallel()
	iono := propagation.NewIonosphere(120, 3, propagation.SeasonWinter, nil)
	_, err := iono.SignalStrength("ZZ", "FN31pr", time.Now(), 0)
	assert.Error(t, err)
}
