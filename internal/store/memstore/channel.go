// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import (
	"context"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/db/models"
)

type channelStore Store

func canonicalLink(a, b uint) [2]uint {
	if a <= b {
		return [2]uint{a, b}
	}
	return [2]uint{b, a}
}

func (s *channelStore) Create(ctx context.Context, c *models.Channel) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if c.ID != models.RootChannelID {
		if _, ok := s2.channels[c.ParentID]; !ok {
			return apperror.New(apperror.KindNotFound, "parent channel does not exist")
		}
	}
	if c.ID == 0 {
		c.ID = s2.nextChannelID
	}
	if c.ID >= s2.nextChannelID {
		s2.nextChannelID = c.ID + 1
	}
	s2.channels[c.ID] = *c
	return nil
}

func (s *channelStore) Get(ctx context.Context, id uint) (models.Channel, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	c, ok := s2.channels[id]
	if !ok {
		return models.Channel{}, apperror.NotFound
	}
	return c, nil
}

func (s *channelStore) List(ctx context.Context) ([]models.Channel, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	out := make([]models.Channel, 0, len(s2.channels))
	for _, c := range s2.channels {
		out = append(out, c)
	}
	return out, nil
}

func (s *channelStore) Delete(ctx context.Context, id uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if id == models.RootChannelID {
		return apperror.New(apperror.KindValidation, "cannot delete root channel")
	}
	if _, ok := s2.channels[id]; !ok {
		return apperror.NotFound
	}
	delete(s2.channels, id)
	delete(s2.listeners, id)
	for rowID, row := range s2.aclRows {
		if row.ChannelID == id {
			delete(s2.aclRows, rowID)
		}
	}
	for link := range s2.links {
		if link[0] == id || link[1] == id {
			delete(s2.links, link)
		}
	}
	return nil
}

func (s *channelStore) Links(ctx context.Context) ([]models.ChannelLink, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	out := make([]models.ChannelLink, 0, len(s2.links))
	for link := range s2.links {
		out = append(out, models.ChannelLink{ChannelAID: link[0], ChannelBID: link[1]})
	}
	return out, nil
}

func (s *channelStore) AddLink(ctx context.Context, a, b uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	s2.links[canonicalLink(a, b)] = struct{}{}
	return nil
}

func (s *channelStore) RemoveLink(ctx context.Context, a, b uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	delete(s2.links, canonicalLink(a, b))
	return nil
}
