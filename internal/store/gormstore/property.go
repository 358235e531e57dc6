// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/ionovox/server/internal/db/models"
)

type propertyStore struct {
	db *gorm.DB
}

func (s propertyStore) Get(ctx context.Context, userID uint, tag models.PropertyTag) (string, bool, error) {
	value, ok := models.GetProperty(s.db.WithContext(ctx), userID, tag)
	return value, ok, nil
}

func (s propertyStore) Set(ctx context.Context, userID uint, tag models.PropertyTag, value string) error {
	return models.SetProperty(s.db.WithContext(ctx), userID, tag, value)
}

func (s propertyStore) Delete(ctx context.Context, userID uint, tag models.PropertyTag) error {
	return models.DeleteProperty(s.db.WithContext(ctx), userID, tag)
}
