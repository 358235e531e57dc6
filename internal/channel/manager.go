// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package channel maintains the channel tree, evaluates ACL permissions,
// and manages listener bindings (spec §4.2). The tree, the link overlay,
// the ACL rows, and the listener indices live behind one reader/writer
// lock: read-heavy routing and permission queries take the shared mode,
// structural mutations take the exclusive mode, and notifications are
// published only after the lock is released.
package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/ionovox/server/internal/bus"
	"github.com/ionovox/server/internal/db/models"
	"github.com/ionovox/server/internal/store"
)

// Manager is an in-memory mirror of the channel tree, ACL rows, and
// listener bindings backed by a store.Store, plus the live (session-scoped)
// channel membership the audio routing fabric needs for receiver
// enumeration.
type Manager struct {
	mu    sync.RWMutex
	store store.Store
	bus   *bus.Bus

	channels   map[uint]models.Channel
	childrenOf map[uint][]uint
	links      map[[2]uint]struct{}

	aclByChannel map[uint][]models.ACLRow

	listenersByChannel map[uint]map[uint]models.ListenerBinding
	channelsByUser     map[uint]map[uint]struct{}

	// membersByChannel[channelID] is the set of session ids currently
	// joined to that channel (spec §4.4 "members(C)").
	membersByChannel map[uint]map[uint32]struct{}
	channelOfSession  map[uint32]uint

	permCache *xsync.Map[permCacheKey, permCacheEntry]

	// onMutate, if set, is called after every structural, ACL or
	// membership mutation: channel create/delete, link add/remove, ACL
	// row create/delete, and session join/leave. voice.Router wires its
	// InvalidateAll here so a materialized whisper set never survives one
	// of the events spec §4.4 requires it to drop on.
	onMutate func()
}

// SetMutationHook installs fn to be invoked after any mutation tracked by
// the Manager. Only one hook is supported; a second call replaces the
// first.
func (m *Manager) SetMutationHook(fn func()) {
	m.mu.Lock()
	m.onMutate = fn
	m.mu.Unlock()
}

func (m *Manager) notifyMutate() {
	m.mu.RLock()
	fn := m.onMutate
	m.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// New loads the full channel tree, ACL rows, and listener bindings from
// store and returns a ready-to-use Manager. eventBus may be nil, in which
// case state-change notifications are silently dropped.
func New(ctx context.Context, backing store.Store, eventBus *bus.Bus) (*Manager, error) {
	m := &Manager{
		store:              backing,
		bus:                eventBus,
		channels:           map[uint]models.Channel{},
		childrenOf:         map[uint][]uint{},
		links:              map[[2]uint]struct{}{},
		aclByChannel:       map[uint][]models.ACLRow{},
		listenersByChannel: map[uint]map[uint]models.ListenerBinding{},
		channelsByUser:     map[uint]map[uint]struct{}{},
		membersByChannel:   map[uint]map[uint32]struct{}{},
		channelOfSession:   map[uint32]uint{},
		permCache:          xsync.NewMap[permCacheKey, permCacheEntry](),
	}
	if err := m.reload(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) reload(ctx context.Context) error {
	channels, err := m.store.Channels().List(ctx)
	if err != nil {
		return fmt.Errorf("channel: load channels: %w", err)
	}
	links, err := m.store.Channels().Links(ctx)
	if err != nil {
		return fmt.Errorf("channel: load links: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.channels = make(map[uint]models.Channel, len(channels))
	m.childrenOf = map[uint][]uint{}
	for _, c := range channels {
		m.channels[c.ID] = c
		if c.ID != models.RootChannelID {
			m.childrenOf[c.ParentID] = append(m.childrenOf[c.ParentID], c.ID)
		}
	}

	m.links = map[[2]uint]struct{}{}
	for _, l := range links {
		m.links[canonicalLink(l.ChannelAID, l.ChannelBID)] = struct{}{}
	}

	m.aclByChannel = map[uint][]models.ACLRow{}
	for _, c := range channels {
		rows, err := m.store.ACL().ListForChannel(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("channel: load acl for channel %d: %w", c.ID, err)
		}
		if len(rows) > 0 {
			m.aclByChannel[c.ID] = rows
		}
	}

	m.listenersByChannel = map[uint]map[uint]models.ListenerBinding{}
	m.channelsByUser = map[uint]map[uint]struct{}{}
	for _, c := range channels {
		bindings, err := m.store.Listeners().OfChannel(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("channel: load listeners for channel %d: %w", c.ID, err)
		}
		for _, b := range bindings {
			m.indexListenerLocked(b)
		}
	}

	m.permCache.Clear()
	return nil
}

func canonicalLink(a, b uint) [2]uint {
	if a <= b {
		return [2]uint{a, b}
	}
	return [2]uint{b, a}
}

func (m *Manager) publish(topic string, payload any) {
	if m.bus == nil {
		return
	}
	_ = m.bus.Publish(topic, payload)
}
