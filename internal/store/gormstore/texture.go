// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/ionovox/server/internal/db/models"
)

type textureStore struct {
	db *gorm.DB
}

func (s textureStore) Get(ctx context.Context, userID uint) (models.TextureBlob, error) {
	t, err := models.GetTextureBlob(s.db.WithContext(ctx), userID)
	if err != nil {
		return t, wrapNotFound(err)
	}
	return t, nil
}

func (s textureStore) Set(ctx context.Context, blob *models.TextureBlob) error {
	return models.SetTextureBlob(s.db.WithContext(ctx), blob)
}

func (s textureStore) Delete(ctx context.Context, userID uint) error {
	return models.DeleteTextureBlob(s.db.WithContext(ctx), userID)
}
