// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import (
	"context"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/db/models"
)

type aclStore Store

func (s *aclStore) ListForChannel(ctx context.Context, channelID uint) ([]models.ACLRow, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	var out []models.ACLRow
	for _, row := range s2.aclRows {
		if row.ChannelID == channelID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *aclStore) ListOnPath(ctx context.Context, ancestorIDs []uint) ([]models.ACLRow, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	want := make(map[uint]struct{}, len(ancestorIDs))
	for _, id := range ancestorIDs {
		want[id] = struct{}{}
	}
	var out []models.ACLRow
	for _, row := range s2.aclRows {
		if _, ok := want[row.ChannelID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *aclStore) Create(ctx context.Context, row *models.ACLRow) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if row.ID == 0 {
		row.ID = s2.nextACLID
	}
	if row.ID >= s2.nextACLID {
		s2.nextACLID = row.ID + 1
	}
	s2.aclRows[row.ID] = *row
	return nil
}

func (s *aclStore) Delete(ctx context.Context, id uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	if _, ok := s2.aclRows[id]; !ok {
		return apperror.NotFound
	}
	delete(s2.aclRows, id)
	return nil
}
