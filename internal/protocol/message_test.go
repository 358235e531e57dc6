// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ionovox/server/internal/protocol"
)

func TestMessageTypeStringAndValid(t *testing.T) {
	assert.Equal(t, "ServerSync", protocol.ServerSync.String())
	assert.True(t, protocol.ServerSync.Valid())
	assert.False(t, protocol.MessageType(9999).Valid())
}
