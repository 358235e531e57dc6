// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/ionovox/server/internal/db/models"
)

type aclStore struct {
	db *gorm.DB
}

func (s aclStore) ListForChannel(ctx context.Context, channelID uint) ([]models.ACLRow, error) {
	return models.ListACLRowsForChannel(s.db.WithContext(ctx), channelID)
}

func (s aclStore) ListOnPath(ctx context.Context, ancestorIDs []uint) ([]models.ACLRow, error) {
	return models.ListACLRowsOnPath(s.db.WithContext(ctx), ancestorIDs)
}

func (s aclStore) Create(ctx context.Context, row *models.ACLRow) error {
	return models.CreateACLRow(s.db.WithContext(ctx), row)
}

func (s aclStore) Delete(ctx context.Context, id uint) error {
	return models.DeleteACLRow(s.db.WithContext(ctx), id)
}
