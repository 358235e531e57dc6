// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package session is the transient connection registry and handshake
// state machine of spec §4.1. Sessions never outlive the process; nothing
// here is persisted.
package session

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ionovox/server/internal/protocol"
)

// Session is one connected client's transient state: handshake progress,
// identity once authenticated, current channel, and the small set of
// per-connection flags the routing fabric consults.
type Session struct {
	ID uint32

	state atomic.Uint32

	mu             sync.RWMutex
	userID         uint
	clientVersion  string
	remoteAddr     net.Addr
	voiceAddr      net.Addr
	channelID      uint
	gridLocator    string
	serverDeafened bool
	listeningOnly  bool
	blocked        map[uint]struct{}
	lastActivity   atomic.Int64 // unix nanos

	// cryptState, txSeed and rxSeed are the AES-GCM record-layer state
	// established by the session's CryptSetup exchange (spec §3's
	// "transmit-crypto and receive-crypto nonces"); nil/empty until then.
	cryptState *protocol.CryptState
	txSeed     []byte
	rxSeed     []byte
	txCounter  atomic.Uint64
	rxCounter  atomic.Uint64
}

func newSession(id uint32, remoteAddr net.Addr) *Session {
	s := &Session{ID: id, remoteAddr: remoteAddr, blocked: map[uint]struct{}{}}
	s.state.Store(uint32(StateFresh))
	s.Touch()
	return s
}

// Touch records activity now, resetting the idle timer.
func (s *Session) Touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Idle reports how long it has been since the last Touch.
func (s *Session) Idle() time.Duration {
	return time.Since(time.Unix(0, s.lastActivity.Load()))
}

// State returns the session's current handshake state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// RemoteAddr is the control-connection peer address.
func (s *Session) RemoteAddr() net.Addr {
	return s.remoteAddr
}

// VoiceAddr is the address the voice socket bound this session to, once
// the first encrypted voice packet has round-tripped. Nil until then.
func (s *Session) VoiceAddr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voiceAddr
}

// BindVoiceAddr records the address voice packets for this session arrive
// from, per spec §4.1 ("bound to the authenticated peer by address and
// session id once the first encrypted packet round-trips").
func (s *Session) BindVoiceAddr(addr net.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceAddr = addr
}

// UserID is the authenticated user id, valid once State() == StateAuthenticated.
func (s *Session) UserID() uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) setUserID(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}

// ClientVersion is the version string recorded on the Version message.
func (s *Session) ClientVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientVersion
}

func (s *Session) setClientVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientVersion = v
}

// ChannelID is the channel the session currently occupies.
func (s *Session) ChannelID() uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelID
}

// SetChannelID updates the session's current channel.
func (s *Session) SetChannelID(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelID = id
}

// GridLocator is the session's declared Maidenhead grid locator, if any.
func (s *Session) GridLocator() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gridLocator
}

// SetGridLocator updates the session's declared grid locator.
func (s *Session) SetGridLocator(grid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gridLocator = grid
}

// ServerDeafened reports whether an administrator has server-deafened
// this session (excluded as a voice receiver regardless of target).
func (s *Session) ServerDeafened() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverDeafened
}

// SetServerDeafened updates the server-deafened flag.
func (s *Session) SetServerDeafened(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverDeafened = v
}

// ListeningOnly reports whether this session's user record carries the
// listening-only flag (spec §4.4: denies Speak in all band channels
// regardless of ACL).
func (s *Session) ListeningOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listeningOnly
}

// SetListeningOnly updates the listening-only flag.
func (s *Session) SetListeningOnly(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeningOnly = v
}

// SetCryptState installs the session's AES-256-GCM record-layer state and
// per-direction nonce seeds, established by the CryptSetup exchange (spec
// §4.1) immediately after a successful authentication. txSeed seeds the
// nonce the server uses encrypting traffic to this session; rxSeed seeds
// the nonce it expects decrypting traffic from it.
func (s *Session) SetCryptState(cs *protocol.CryptState, txSeed, rxSeed []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cryptState = cs
	s.txSeed = txSeed
	s.rxSeed = rxSeed
}

// CryptState returns the session's record-layer AEAD, or nil before
// CryptSetup has completed.
func (s *Session) CryptState() *protocol.CryptState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cryptState
}

// TransmitSeed is the nonce seed for records the server sends this session.
func (s *Session) TransmitSeed() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txSeed
}

// ReceiveSeed is the nonce seed for records the server accepts from this
// session.
func (s *Session) ReceiveSeed() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rxSeed
}

// NextTransmitNonce returns this session's next transmit-crypto nonce
// counter (spec §3) and advances it.
func (s *Session) NextTransmitNonce() uint64 {
	return s.txCounter.Add(1) - 1
}

// CheckReceiveNonce reports whether counter is newer than every
// receive-crypto nonce already accepted from this session, recording it on
// success. Rejects replays and stale retransmits while tolerating the
// gaps and reordering ordinary UDP loss produces.
func (s *Session) CheckReceiveNonce(counter uint64) bool {
	for {
		cur := s.rxCounter.Load()
		if counter < cur {
			return false
		}
		if s.rxCounter.CompareAndSwap(cur, counter+1) {
			return true
		}
	}
}

// Blocks reports whether this session's user has blocked speakerID.
func (s *Session) Blocks(speakerID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocked[speakerID]
	return ok
}

// SetBlockList replaces the full block list.
func (s *Session) SetBlockList(userIDs []uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked = make(map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		s.blocked[id] = struct{}{}
	}
}
