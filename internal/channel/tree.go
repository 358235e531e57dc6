// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package channel

import (
	"context"
	"fmt"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/bus"
	"github.com/ionovox/server/internal/db/models"
)

// Get returns channel c's current state.
func (m *Manager) Get(id uint) (models.Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.channels[id]
	return c, ok
}

// Children returns the direct children of id, in no particular order.
func (m *Manager) Children(id uint) []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]uint, len(m.childrenOf[id]))
	copy(out, m.childrenOf[id])
	return out
}

// Ancestors returns the root-to-id path inclusive, root first.
func (m *Manager) Ancestors(id uint) ([]uint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ancestorsLocked(id)
}

func (m *Manager) ancestorsLocked(id uint) ([]uint, error) {
	var path []uint
	seen := map[uint]struct{}{}
	for {
		if _, ok := m.channels[id]; !ok {
			return nil, apperror.New(apperror.KindNotFound, "channel does not exist")
		}
		path = append([]uint{id}, path...)
		if id == models.RootChannelID {
			return path, nil
		}
		if _, ok := seen[id]; ok {
			return nil, apperror.New(apperror.KindInternal, "channel tree contains a cycle")
		}
		seen[id] = struct{}{}
		id = m.channels[id].ParentID
	}
}

// Descendants returns every channel reachable from id by repeatedly
// following Children, id itself excluded.
func (m *Manager) Descendants(id uint) []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []uint
	queue := append([]uint{}, m.childrenOf[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, m.childrenOf[next]...)
	}
	return out
}

// CreateChannel inserts c under c.ParentID, persists it, and invalidates
// the affected part of the tree cache.
func (m *Manager) CreateChannel(ctx context.Context, c *models.Channel) error {
	if err := m.store.Channels().Create(ctx, c); err != nil {
		return fmt.Errorf("channel: create: %w", err)
	}

	m.mu.Lock()
	m.channels[c.ID] = *c
	if c.ID != models.RootChannelID {
		m.childrenOf[c.ParentID] = append(m.childrenOf[c.ParentID], c.ID)
	}
	m.invalidateSubtreeLocked(c.ParentID)
	m.mu.Unlock()

	m.publish(bus.TopicChannelStateChanged, bus.ChannelStateChanged{ChannelID: c.ID})
	m.notifyMutate()
	return nil
}

// DeleteChannel removes a channel, its ACL rows, its listener bindings,
// and any permanent links touching it.
func (m *Manager) DeleteChannel(ctx context.Context, id uint) error {
	if err := m.store.Channels().Delete(ctx, id); err != nil {
		return fmt.Errorf("channel: delete: %w", err)
	}

	m.mu.Lock()
	parent := m.channels[id].ParentID
	delete(m.channels, id)
	m.childrenOf[parent] = removeValue(m.childrenOf[parent], id)
	delete(m.childrenOf, id)
	delete(m.aclByChannel, id)
	for userID := range m.listenersByChannel[id] {
		delete(m.channelsByUser[userID], id)
	}
	delete(m.listenersByChannel, id)
	for link := range m.links {
		if link[0] == id || link[1] == id {
			delete(m.links, link)
		}
	}
	delete(m.membersByChannel, id)
	m.invalidateSubtreeLocked(parent)
	m.mu.Unlock()

	m.publish(bus.TopicChannelStateChanged, bus.ChannelStateChanged{ChannelID: id, Removed: true})
	m.notifyMutate()
	return nil
}

func removeValue(s []uint, v uint) []uint {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// AddLink adds a permanent, undirected routing link between a and b. It is
// idempotent and is never removed by propagation-driven "open-bands" logic.
func (m *Manager) AddLink(ctx context.Context, a, b uint) error {
	if err := m.store.Channels().AddLink(ctx, a, b); err != nil {
		return fmt.Errorf("channel: add link: %w", err)
	}
	m.mu.Lock()
	m.links[canonicalLink(a, b)] = struct{}{}
	m.mu.Unlock()
	m.notifyMutate()
	return nil
}

func (m *Manager) RemoveLink(ctx context.Context, a, b uint) error {
	if err := m.store.Channels().RemoveLink(ctx, a, b); err != nil {
		return fmt.Errorf("channel: remove link: %w", err)
	}
	m.mu.Lock()
	delete(m.links, canonicalLink(a, b))
	m.mu.Unlock()
	m.notifyMutate()
	return nil
}

// LinkedChannels returns the channels linked to id by a stored link
// (routing hints only, per spec §4.2 — still subject to ACL and
// propagation at delivery time).
func (m *Manager) LinkedChannels(id uint) []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []uint
	for link := range m.links {
		switch id {
		case link[0]:
			out = append(out, link[1])
		case link[1]:
			out = append(out, link[0])
		}
	}
	return out
}

// JoinChannel records that session moved into channelID, for receiver
// enumeration's members(C).
func (m *Manager) JoinChannel(sessionID uint32, channelID uint) {
	m.mu.Lock()
	if prev, ok := m.channelOfSession[sessionID]; ok {
		if set := m.membersByChannel[prev]; set != nil {
			delete(set, sessionID)
		}
	}
	set, ok := m.membersByChannel[channelID]
	if !ok {
		set = map[uint32]struct{}{}
		m.membersByChannel[channelID] = set
	}
	set[sessionID] = struct{}{}
	m.channelOfSession[sessionID] = channelID
	m.mu.Unlock()
	m.notifyMutate()
}

// LeaveAll removes sessionID from whichever channel it occupied, called
// when a session closes.
func (m *Manager) LeaveAll(sessionID uint32) {
	m.mu.Lock()
	left := false
	if prev, ok := m.channelOfSession[sessionID]; ok {
		if set := m.membersByChannel[prev]; set != nil {
			delete(set, sessionID)
		}
		delete(m.channelOfSession, sessionID)
		left = true
	}
	m.mu.Unlock()
	if left {
		m.notifyMutate()
	}
}

// Members returns the sessions currently joined to channelID.
func (m *Manager) Members(channelID uint) []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.membersByChannel[channelID]
	out := make([]uint32, 0, len(set))
	for sid := range set {
		out = append(out, sid)
	}
	return out
}
