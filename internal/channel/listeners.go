// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package channel

import (
	"context"
	"fmt"

	"github.com/ionovox/server/internal/db/models"
)

// indexListenerLocked adds binding to both the channel->users and
// user->channels indices. Callers must hold m.mu for writing.
func (m *Manager) indexListenerLocked(b models.ListenerBinding) {
	byUser, ok := m.listenersByChannel[b.ChannelID]
	if !ok {
		byUser = map[uint]models.ListenerBinding{}
		m.listenersByChannel[b.ChannelID] = byUser
	}
	byUser[b.UserID] = b

	byChannel, ok := m.channelsByUser[b.UserID]
	if !ok {
		byChannel = map[uint]struct{}{}
		m.channelsByUser[b.UserID] = byChannel
	}
	byChannel[b.ChannelID] = struct{}{}
}

// AddListener inserts (userID, channelID) into both indices and
// initializes the volume adjustment to identity, unless it already
// exists (idempotent, per spec §4.2).
func (m *Manager) AddListener(ctx context.Context, userID, channelID uint) error {
	if err := m.store.Listeners().Add(ctx, userID, channelID); err != nil {
		return fmt.Errorf("channel: add listener: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listenersByChannel[channelID][userID]; ok {
		return nil
	}
	m.indexListenerLocked(models.NewListenerBinding(userID, channelID))
	return nil
}

// RemoveListener cleans both indices symmetrically.
func (m *Manager) RemoveListener(ctx context.Context, userID, channelID uint) error {
	if err := m.store.Listeners().Remove(ctx, userID, channelID); err != nil {
		return fmt.Errorf("channel: remove listener: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if byUser, ok := m.listenersByChannel[channelID]; ok {
		delete(byUser, userID)
		if len(byUser) == 0 {
			delete(m.listenersByChannel, channelID)
		}
	}
	if byChannel, ok := m.channelsByUser[userID]; ok {
		delete(byChannel, channelID)
		if len(byChannel) == 0 {
			delete(m.channelsByUser, userID)
		}
	}
	return nil
}

// DisableListener sets userID's volume factor for channelID to 0 while
// preserving the binding, per spec §4.2.
func (m *Manager) DisableListener(ctx context.Context, userID, channelID uint) error {
	if err := m.store.Listeners().Disable(ctx, userID, channelID); err != nil {
		return fmt.Errorf("channel: disable listener: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if byUser, ok := m.listenersByChannel[channelID]; ok {
		if b, ok := byUser[userID]; ok {
			b.VolumeFactor = 0
			byUser[userID] = b
		}
	}
	return nil
}

// ListenersOf returns every listener binding currently registered on
// channelID.
func (m *Manager) ListenersOf(channelID uint) []models.ListenerBinding {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byUser := m.listenersByChannel[channelID]
	out := make([]models.ListenerBinding, 0, len(byUser))
	for _, b := range byUser {
		out = append(out, b)
	}
	return out
}

// IsListener reports whether userID listens to channelID, and its binding
// if so.
func (m *Manager) IsListener(userID, channelID uint) (models.ListenerBinding, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.listenersByChannel[channelID][userID]
	return b, ok
}

// ChannelsOf returns every channel userID listens to.
func (m *Manager) ChannelsOf(userID uint) []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byChannel := m.channelsByUser[userID]
	out := make([]uint, 0, len(byChannel))
	for c := range byChannel {
		out = append(out, c)
	}
	return out
}
