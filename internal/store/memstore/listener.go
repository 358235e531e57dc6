// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import (
	"context"

	"github.com/ionovox/server/internal/db/models"
)

type listenerStore Store

func (s *listenerStore) Add(ctx context.Context, userID, channelID uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	byUser, ok := s2.listeners[channelID]
	if !ok {
		byUser = map[uint]models.ListenerBinding{}
		s2.listeners[channelID] = byUser
	}
	if _, exists := byUser[userID]; exists {
		return nil
	}
	byUser[userID] = models.NewListenerBinding(userID, channelID)
	return nil
}

func (s *listenerStore) Remove(ctx context.Context, userID, channelID uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if byUser, ok := s2.listeners[channelID]; ok {
		delete(byUser, userID)
		if len(byUser) == 0 {
			delete(s2.listeners, channelID)
		}
	}
	return nil
}

func (s *listenerStore) Disable(ctx context.Context, userID, channelID uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	byUser, ok := s2.listeners[channelID]
	if !ok {
		return nil
	}
	b, ok := byUser[userID]
	if !ok {
		return nil
	}
	b.VolumeFactor = 0
	byUser[userID] = b
	return nil
}

func (s *listenerStore) OfChannel(ctx context.Context, channelID uint) ([]models.ListenerBinding, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	byUser := s2.listeners[channelID]
	out := make([]models.ListenerBinding, 0, len(byUser))
	for _, b := range byUser {
		out = append(out, b)
	}
	return out, nil
}

func (s *listenerStore) OfUser(ctx context.Context, userID uint) ([]models.ListenerBinding, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	var out []models.ListenerBinding
	for _, byUser := range s2.listeners {
		if b, ok := byUser[userID]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}
