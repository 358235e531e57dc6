// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import (
	"context"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/db/models"
)

type textureStore Store

func (s *textureStore) Get(ctx context.Context, userID uint) (models.TextureBlob, error) {
	s2 := (*Store)(s)
	s2.mu.RLock()
	defer s2.mu.RUnlock()
	t, ok := s2.textures[userID]
	if !ok {
		return models.TextureBlob{}, apperror.NotFound
	}
	return t, nil
}

func (s *textureStore) Set(ctx context.Context, blob *models.TextureBlob) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	s2.textures[blob.UserID] = *blob
	return nil
}

func (s *textureStore) Delete(ctx context.Context, userID uint) error {
	s2 := (*Store)(s)
	s2.mu.Lock()
	defer s2.mu.Unlock()
	delete(s2.textures, userID)
	return nil
}
