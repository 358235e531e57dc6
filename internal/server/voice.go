// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package server

import (
	"context"
	"encoding/binary"
	"log/slog"
	"net"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/protocol"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/voice"
)

// voicePacketSenderLen is the width of the sender-session-id field every
// voice packet carries after its 1-byte header, so a receiver (or the
// routing fabric re-encoding a packet downstream) can attribute it without
// a side channel. voicePacketNonceLen is the width of the transmit-crypto
// nonce counter (spec §3) that follows it; everything after that is the
// AES-GCM-sealed Opus payload (spec §4.1/§D).
const (
	voicePacketSenderLen = 4
	voicePacketNonceLen  = 8
)

func encodeVoicePacket(header protocol.VoiceHeader, senderSessionID uint32, nonce uint64, sealed []byte) []byte {
	prefix := 1 + voicePacketSenderLen + voicePacketNonceLen
	out := make([]byte, prefix+len(sealed))
	out[0] = protocol.EncodeVoiceHeader(header)
	binary.BigEndian.PutUint32(out[1:5], senderSessionID)
	binary.BigEndian.PutUint64(out[5:13], nonce)
	copy(out[prefix:], sealed)
	return out
}

func decodeVoicePacket(data []byte) (protocol.VoiceHeader, uint32, uint64, []byte, error) {
	if err := protocol.ValidateVoicePacketLength(len(data)); err != nil {
		return protocol.VoiceHeader{}, 0, 0, nil, err
	}
	prefix := 1 + voicePacketSenderLen + voicePacketNonceLen
	if len(data) < prefix {
		return protocol.VoiceHeader{}, 0, 0, nil, apperror.New(apperror.KindProtocol, "voice packet shorter than header")
	}
	header, err := protocol.DecodeVoiceHeader(data[0])
	if err != nil {
		return protocol.VoiceHeader{}, 0, 0, nil, err
	}
	senderID := binary.BigEndian.Uint32(data[1:5])
	nonce := binary.BigEndian.Uint64(data[5:13])
	return header, senderID, nonce, data[prefix:], nil
}

func (s *Server) voiceLoop(ctx context.Context) {
	buf := make([]byte, protocol.MaxVoicePacketLength)
	for {
		n, addr, err := s.voiceConn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		packet := make([]byte, n)
		copy(packet, buf[:n])
		go s.handleVoiceUDP(ctx, addr, packet)
	}
}

func (s *Server) handleVoiceUDP(ctx context.Context, addr *net.UDPAddr, data []byte) {
	header, senderID, nonce, sealed, err := decodeVoicePacket(data)
	if err != nil {
		return // malformed voice packet: discarded per spec §4.1, not fatal
	}
	sess, ok := s.sessions.Get(senderID)
	if !ok || sess.State() != session.StateAuthenticated {
		return
	}
	if sess.ListeningOnly() {
		return // listening-only users may never speak (spec §4.4)
	}
	opus, ok := s.openVoicePacket(sess, nonce, sealed)
	if !ok {
		return
	}
	if bound := sess.VoiceAddr(); bound == nil {
		sess.BindVoiceAddr(addr)
	} else if bound.String() != addr.String() {
		return // address mismatch: silent drop, analogous to a crypto resync failure
	}
	sess.Touch()
	s.routeVoice(ctx, sess, header, opus)
}

// handleVoicePacket is the UDPTunnel control-message path: a client
// without a reachable UDP socket wraps the same wire format inside a
// framed control message instead.
func (s *Server) handleVoicePacket(ctx context.Context, sess *session.Session, data []byte) {
	header, senderID, nonce, sealed, err := decodeVoicePacket(data)
	if err != nil || senderID != sess.ID {
		return
	}
	if sess.ListeningOnly() {
		return // listening-only users may never speak (spec §4.4)
	}
	opus, ok := s.openVoicePacket(sess, nonce, sealed)
	if !ok {
		return
	}
	sess.Touch()
	s.routeVoice(ctx, sess, header, opus)
}

// openVoicePacket authenticates and decrypts a voice packet's sealed Opus
// payload under sess's record-layer state (spec §3/§D), rejecting it if
// CryptSetup never completed, the nonce has already been seen, or the
// AEAD tag fails to verify.
func (s *Server) openVoicePacket(sess *session.Session, nonce uint64, sealed []byte) ([]byte, bool) {
	cs := sess.CryptState()
	if cs == nil {
		return nil, false
	}
	if !sess.CheckReceiveNonce(nonce) {
		return nil, false
	}
	opus, err := cs.Open(sess.ReceiveSeed(), nonce, sealed)
	if err != nil {
		return nil, false
	}
	return opus, true
}

func (s *Server) routeVoice(ctx context.Context, speaker *session.Session, header protocol.VoiceHeader, opus []byte) {
	if header.Type == protocol.VoicePing {
		return // liveness-only packet, nothing to route
	}
	target := voice.Target(header.Target)
	s.router.RouteOrdered(ctx, speaker, speaker.ChannelID(), target, func(deliveries []voice.Delivery, err error) {
		if err != nil {
			slog.DebugContext(ctx, "voice routing failed", "speaker", speaker.ID, "error", err)
			return
		}
		for _, d := range deliveries {
			if d.Effect.Drop {
				continue
			}
			s.deliverVoice(speaker.ID, d, header, opus)
		}
	})
}

// deliverVoice re-seals opus under the receiver's own record-layer state
// and transmit nonce before sending: each session has an independent
// CryptSetup, so the server decrypts once from the speaker and re-encrypts
// once per receiver rather than forwarding a speaker's ciphertext intact.
func (s *Server) deliverVoice(senderID uint32, d voice.Delivery, header protocol.VoiceHeader, opus []byte) {
	cs := d.Receiver.CryptState()
	if cs == nil {
		return // CryptSetup never completed for this receiver
	}
	nonce := d.Receiver.NextTransmitNonce()
	sealed := cs.Seal(d.Receiver.TransmitSeed(), nonce, opus)
	packet := encodeVoicePacket(header, senderID, nonce, sealed)
	if addr := d.Receiver.VoiceAddr(); addr != nil {
		if udpAddr, ok := addr.(*net.UDPAddr); ok {
			_, _ = s.voiceConn.WriteToUDP(packet, udpAddr)
			return
		}
	}
	if c, ok := s.conns.Load(d.Receiver.ID); ok {
		_ = c.writeFrame(protocol.Frame{Type: protocol.UDPTunnel, Payload: packet})
	}
}
