// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import (
	"context"
	"net"
	"time"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/db/models"
)

type banStore Store

func (s *banStore) List(ctx context.Context) ([]models.Ban, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	out := make([]models.Ban, 0, len(s2.bans))
	for _, b := range s2.bans {
		out = append(out, b)
	}
	return out, nil
}

func (s *banStore) Add(ctx context.Context, b *models.Ban) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if b.ID == 0 {
		b.ID = s2.nextBanID
	}
	if b.ID >= s2.nextBanID {
		s2.nextBanID = b.ID + 1
	}
	s2.bans[b.ID] = *b
	return nil
}

func (s *banStore) Remove(ctx context.Context, id uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if _, ok := s2.bans[id]; !ok {
		return apperror.NotFound
	}
	delete(s2.bans, id)
	return nil
}

func (s *banStore) Matching(ctx context.Context, addr net.IP, username, certHash string, at time.Time) ([]models.Ban, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	var out []models.Ban
	for _, b := range s2.bans {
		if b.Active(at) && b.Matches(addr, username, certHash) {
			out = append(out, b)
		}
	}
	return out, nil
}
