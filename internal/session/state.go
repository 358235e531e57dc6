// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package session

import (
	"github.com/ionovox/server/internal/apperror"
)

// State is one stage of the handshake state machine (spec §4.1).
type State uint32

const (
	StateFresh State = iota
	StateVersioned
	StateAuthenticating
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateVersioned:
		return "versioned"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// HandleVersion records the client's version string and transitions
// Fresh -> Versioned. Any other state rejects the message.
func (s *Session) HandleVersion(clientVersion string) error {
	if !s.state.CompareAndSwap(uint32(StateFresh), uint32(StateVersioned)) {
		return apperror.New(apperror.KindProtocol, "version message only valid in fresh state")
	}
	s.setClientVersion(clientVersion)
	return nil
}

// HandleAuthenticate transitions Versioned -> Authenticating, the state
// held while the credential check is outstanding.
func (s *Session) HandleAuthenticate() error {
	if !s.state.CompareAndSwap(uint32(StateVersioned), uint32(StateAuthenticating)) {
		return apperror.New(apperror.KindProtocol, "authenticate message only valid in versioned state")
	}
	return nil
}

// CompleteAuthentication transitions Authenticating -> Authenticated on a
// successful credential check, recording the resolved user id.
func (s *Session) CompleteAuthentication(userID uint) error {
	if !s.state.CompareAndSwap(uint32(StateAuthenticating), uint32(StateAuthenticated)) {
		return apperror.New(apperror.KindProtocol, "authentication completed from an unexpected state")
	}
	s.setUserID(userID)
	return nil
}

// FailAuthentication transitions out of Authenticating on a permanent or
// rate-limited credential failure. The caller closes the connection after
// sending the Reject.
func (s *Session) FailAuthentication() error {
	if !s.state.CompareAndSwap(uint32(StateAuthenticating), uint32(StateClosed)) {
		return apperror.New(apperror.KindProtocol, "authentication failure reported from an unexpected state")
	}
	return nil
}

// Close transitions to Closed from any state: transport error, timeout,
// kick, or ban all call this unconditionally.
func (s *Session) Close() {
	s.state.Store(uint32(StateClosed))
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.State() == StateClosed
}
