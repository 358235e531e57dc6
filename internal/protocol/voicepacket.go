// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package protocol

import (
	"fmt"

	"github.com/ionovox/server/internal/apperror"
)

// MaxVoicePacketLength is the per-session sanity bound of spec §4.1:
// voice-packet length <= 2 KiB.
const MaxVoicePacketLength = 2 * 1024

// VoicePacketType is the first byte's 3-bit type field, per spec §4.1/§6.
type VoicePacketType uint8

const (
	VoiceData VoicePacketType = iota // legacy
	VoicePing
	VoiceOpus
)

// VoiceHeader is the decoded first byte of a voice packet: a 3-bit type and
// a 5-bit target (ttttt fff in spec §6's bit order — type occupies the low
// 3 bits, target the high 5).
type VoiceHeader struct {
	Type   VoicePacketType
	Target uint8
}

// EncodeVoiceHeader packs h into its one-byte wire form.
func EncodeVoiceHeader(h VoiceHeader) byte {
	return (h.Target&0x1F)<<3 | byte(h.Type)&0x07
}

// DecodeVoiceHeader unpacks the first byte of a voice packet. A type value
// outside {VoiceData, VoicePing, VoiceOpus} is a protocol violation; per
// spec §4.1 "other values discarded" — the caller drops the packet without
// closing the connection.
func DecodeVoiceHeader(b byte) (VoiceHeader, error) {
	h := VoiceHeader{
		Type:   VoicePacketType(b & 0x07),
		Target: (b >> 3) & 0x1F,
	}
	if h.Type > VoiceOpus {
		return VoiceHeader{}, apperror.New(apperror.KindProtocol, fmt.Sprintf("unrecognized voice packet type %d", h.Type))
	}
	return h, nil
}

// ValidateVoicePacketLength enforces spec §4.1's per-packet sanity bound.
func ValidateVoicePacketLength(n int) error {
	if n > MaxVoicePacketLength {
		return apperror.New(apperror.KindProtocol, "voice packet exceeds the maximum allowed length")
	}
	return nil
}
