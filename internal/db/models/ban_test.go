// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models_test

import (
	"net"
	"testing"
	"time"

	"github.com/ionovox/server/internal/db/models"
	"github.com/stretchr/testify/assert"
)

func TestBanActivePermanent(t *testing.T) {
	t.Parallel()
	b := models.Ban{StartTime: time.Now().Add(-time.Hour), Duration: 0}
	assert.True(t, b.Active(time.Now()))
}

func TestBanActiveExpires(t *testing.T) {
	t.Parallel()
	b := models.Ban{StartTime: time.Now().Add(-2 * time.Hour), Duration: time.Hour}
	assert.False(t, b.Active(time.Now()))
}

func TestBanMatchesAddressPrefix(t *testing.T) {
	t.Parallel()
	b := models.Ban{Address: "10.0.0.0", PrefixLength: 8}
	assert.True(t, b.Matches(net.ParseIP("10.1.2.3"), "", ""))
	assert.False(t, b.Matches(net.ParseIP("11.1.2.3"), "", ""))
}

func TestBanMatchesUsername(t *testing.T) {
	t.Parallel()
	b := models.Ban{Username: "troll"}
	assert.True(t, b.Matches(nil, "troll", ""))
	assert.False(t, b.Matches(nil, "other", ""))
}

func TestBanMatchesEmptyRowMatchesNothing(t *testing.T) {
	t.Parallel()
	b := models.Ban{}
	assert.False(t, b.Matches(net.ParseIP("1.2.3.4"), "anyone", "hash"))
}
