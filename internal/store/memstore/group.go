// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import "context"

type groupStore Store

func (s *groupStore) Add(ctx context.Context, sessionID uint32, channelID uint, group string) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	byChannel, ok := s2.groups[sessionID]
	if !ok {
		byChannel = map[uint]map[string]struct{}{}
		s2.groups[sessionID] = byChannel
	}
	names, ok := byChannel[channelID]
	if !ok {
		names = map[string]struct{}{}
		byChannel[channelID] = names
	}
	names[group] = struct{}{}
	return nil
}

func (s *groupStore) Remove(ctx context.Context, sessionID uint32, channelID uint, group string) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if byChannel, ok := s2.groups[sessionID]; ok {
		if names, ok := byChannel[channelID]; ok {
			delete(names, group)
		}
	}
	return nil
}

func (s *groupStore) ForSession(ctx context.Context, sessionID uint32, channelID uint) ([]string, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	var out []string
	if byChannel, ok := s2.groups[sessionID]; ok {
		for name := range byChannel[channelID] {
			out = append(out, name)
		}
	}
	return out, nil
}

func (s *groupStore) ClearSession(ctx context.Context, sessionID uint32) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	delete(s2.groups, sessionID)
	return nil
}
