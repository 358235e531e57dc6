// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import (
	"context"

	"github.com/ionovox/server/internal/db/models"
)

type propertyStore Store

func (s *propertyStore) Get(ctx context.Context, userID uint, tag models.PropertyTag) (string, bool, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	byTag, ok := s2.properties[userID]
	if !ok {
		return "", false, nil
	}
	v, ok := byTag[tag]
	return v, ok, nil
}

func (s *propertyStore) Set(ctx context.Context, userID uint, tag models.PropertyTag, value string) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	byTag, ok := s2.properties[userID]
	if !ok {
		byTag = map[models.PropertyTag]string{}
		s2.properties[userID] = byTag
	}
	byTag[tag] = value
	return nil
}

func (s *propertyStore) Delete(ctx context.Context, userID uint, tag models.PropertyTag) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	delete(s2.properties[userID], tag)
	return nil
}
