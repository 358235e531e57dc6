// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package session

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// Registry is the transient, never-persisted set of connected sessions,
// keyed by session id. Ids are never reused within the process lifetime.
type Registry struct {
	sessions *xsync.Map[uint32, *Session]
	byUser   *xsync.Map[uint, uint32]
	counter  atomic.Uint32
}

// NewRegistry returns an empty Registry with its id counter seeded from
// crypto/rand, so session ids are not predictable across restarts.
func NewRegistry() (*Registry, error) {
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("session: seed id counter: %w", err)
	}
	r := &Registry{
		sessions: xsync.NewMap[uint32, *Session](),
		byUser:   xsync.NewMap[uint, uint32](),
	}
	r.counter.Store(binary.BigEndian.Uint32(seed[:]))
	return r, nil
}

// Open allocates a new session id (skipping any id already in use, however
// unlikely a collision is) and registers a fresh Session for remoteAddr.
func (r *Registry) Open(remoteAddr net.Addr) *Session {
	for {
		id := r.counter.Add(1)
		if id == 0 {
			continue // reserve 0 as "no session"
		}
		s := newSession(id, remoteAddr)
		if _, loaded := r.sessions.LoadOrStore(id, s); !loaded {
			return s
		}
	}
}

// Get looks up a session by id.
func (r *Registry) Get(id uint32) (*Session, bool) {
	return r.sessions.Load(id)
}

// BySession is an alias for Get, satisfying voice.SessionLookup.
func (r *Registry) BySession(id uint32) (*Session, bool) {
	return r.Get(id)
}

// IndexUser records that userID's currently active session is sessionID,
// called once CompleteAuthentication succeeds. One active session per user
// is assumed; a second login for the same user supersedes the index entry
// but does not itself close the earlier session.
func (r *Registry) IndexUser(userID uint, sessionID uint32) {
	r.byUser.Store(userID, sessionID)
}

// ByUser resolves userID's currently indexed session, if connected.
func (r *Registry) ByUser(userID uint) (*Session, bool) {
	id, ok := r.byUser.Load(userID)
	if !ok {
		return nil, false
	}
	return r.Get(id)
}

// Remove closes and forgets a session, freeing its id for bookkeeping
// purposes (the id itself is never reissued within this process).
func (r *Registry) Remove(id uint32) {
	if s, ok := r.sessions.LoadAndDelete(id); ok {
		s.Close()
		if uid := s.UserID(); uid != 0 {
			r.byUser.CompareAndDelete(uid, id)
		}
	}
}

// Range calls f for every currently registered session, stopping early if
// f returns false. Used by broadcast operations (roster pushes, ban
// enforcement sweeps).
func (r *Registry) Range(f func(*Session) bool) {
	r.sessions.Range(func(_ uint32, s *Session) bool {
		return f(s)
	})
}

// Count returns the number of currently registered sessions.
func (r *Registry) Count() int {
	return r.sessions.Size()
}
