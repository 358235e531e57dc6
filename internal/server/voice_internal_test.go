// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/protocol"
)

func TestVoicePacketRoundTrips(t *testing.T) {
	header := protocol.VoiceHeader{Type: protocol.VoiceOpus, Target: 5}
	sealed := []byte{0xde, 0xad, 0xbe, 0xef}

	packet := encodeVoicePacket(header, 42, 7, sealed)
	gotHeader, senderID, nonce, payload, err := decodeVoicePacket(packet)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	assert.Equal(t, uint32(42), senderID)
	assert.Equal(t, uint64(7), nonce)
	assert.Equal(t, sealed, payload)
}

func TestDecodeVoicePacketRejectsShortPacket(t *testing.T) {
	_, _, _, _, err := decodeVoicePacket([]byte{0x00, 0x01})
	assert.Error(t, err)
}
