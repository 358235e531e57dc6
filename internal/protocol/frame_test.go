// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package protocol_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/protocol"
)

func TestFrameRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	in := protocol.Frame{Type: protocol.ServerSync, Payload: []byte("hello")}
	require.NoError(t, protocol.WriteFrame(&buf, in))

	out, err := protocol.ReadFrame(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("frame round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	oversized := protocol.MaxControlMessageLength + 1

	// Craft a header claiming an oversized payload without actually writing
	// one, since WriteFrame itself refuses to produce such a frame.
	header := []byte{0, byte(protocol.TextMessage), 0, 0, 0, 0}
	header[2] = byte(oversized >> 24)
	header[3] = byte(oversized >> 16)
	header[4] = byte(oversized >> 8)
	header[5] = byte(oversized)
	buf.Write(header)

	_, err := protocol.ReadFrame(&buf)
	require.Error(t, err)
	assert.Equal(t, apperror.KindProtocol, apperror.KindOf(err))
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := protocol.WriteFrame(&buf, protocol.Frame{
		Type:    protocol.TextMessage,
		Payload: make([]byte, protocol.MaxControlMessageLength+1),
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindProtocol, apperror.KindOf(err))
}

func TestMessageTypeTagsAreStable(t *testing.T) {
	// These numeric values are part of the wire format; a change here is a
	// wire-compatibility break, not a refactor.
	cases := map[protocol.MessageType]uint16{
		protocol.Version:      0,
		protocol.Authenticate: 1,
		protocol.ServerSync:   4,
		protocol.UDPTunnel:    30,
	}
	for msgType, want := range cases {
		assert.Equal(t, want, uint16(msgType))
	}
}

func TestProtocolVersionRoundTrips(t *testing.T) {
	v := protocol.ProtocolVersion{Major: 2, Minor: 7}
	raw := protocol.EncodeProtocolVersion(v)
	assert.Equal(t, v, protocol.DecodeProtocolVersion(raw))
}
