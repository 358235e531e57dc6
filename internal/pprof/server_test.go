// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package pprof_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/pprof"
)

func TestCreatePProfServerDisabledReturnsNil(t *testing.T) {
	cfg := &config.Config{PProf: config.PProf{Enabled: false}}
	assert.NoError(t, pprof.CreatePProfServer(cfg))
}
