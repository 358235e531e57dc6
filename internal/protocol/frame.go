// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ionovox/server/internal/apperror"
)

// MaxControlMessageLength is the per-session sanity bound of spec §4.1:
// control-message length <= 128 KiB.
const MaxControlMessageLength = 128 * 1024

// Frame is one control-plane message: a 2-byte big-endian type tag, a
// 4-byte big-endian length, and the length-prefixed payload, per spec §4.1.
type Frame struct {
	Type    MessageType
	Payload []byte
}

// ReadFrame reads one Frame from r. A length exceeding
// MaxControlMessageLength is a protocol violation; per spec §4.1's failure
// semantics the caller must close the connection on this error rather than
// try to resynchronize.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, fmt.Errorf("protocol: read frame header: %w", err)
	}

	msgType := MessageType(binary.BigEndian.Uint16(header[0:2]))
	length := binary.BigEndian.Uint32(header[2:6])
	if length > MaxControlMessageLength {
		return Frame{}, apperror.New(apperror.KindProtocol, "control message exceeds the maximum allowed length")
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("protocol: read frame payload: %w", err)
	}
	return Frame{Type: msgType, Payload: payload}, nil
}

// WriteFrame writes f to w in wire format.
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > MaxControlMessageLength {
		return apperror.New(apperror.KindProtocol, "control message exceeds the maximum allowed length")
	}

	var header [6]byte
	binary.BigEndian.PutUint16(header[0:2], uint16(f.Type))
	binary.BigEndian.PutUint32(header[2:6], uint32(len(f.Payload)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("protocol: write frame header: %w", err)
	}
	if _, err := w.Write(f.Payload); err != nil {
		return fmt.Errorf("protocol: write frame payload: %w", err)
	}
	return nil
}

// ProtocolVersion is the 32-bit wire version: two 16-bit halves for
// major/minor, per spec §6.
type ProtocolVersion struct {
	Major uint16
	Minor uint16
}

// EncodeProtocolVersion packs v into its 32-bit wire representation.
func EncodeProtocolVersion(v ProtocolVersion) uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)
}

// DecodeProtocolVersion unpacks a 32-bit wire value into its major/minor
// halves.
func DecodeProtocolVersion(raw uint32) ProtocolVersion {
	return ProtocolVersion{Major: uint16(raw >> 16), Minor: uint16(raw)}
}
