// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/ionovox/server/internal/db/models"
)

type groupStore struct {
	db *gorm.DB
}

func (s groupStore) Add(ctx context.Context, sessionID uint32, channelID uint, group string) error {
	return models.AddGroupMembership(s.db.WithContext(ctx), sessionID, channelID, group)
}

func (s groupStore) Remove(ctx context.Context, sessionID uint32, channelID uint, group string) error {
	return models.RemoveGroupMembership(s.db.WithContext(ctx), sessionID, channelID, group)
}

func (s groupStore) ForSession(ctx context.Context, sessionID uint32, channelID uint) ([]string, error) {
	return models.GroupsForSession(s.db.WithContext(ctx), sessionID, channelID)
}

func (s groupStore) ClearSession(ctx context.Context, sessionID uint32) error {
	return models.ClearSessionMemberships(s.db.WithContext(ctx), sessionID)
}
