// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/ionovox/server/internal/db/models"
)

type listenerStore struct {
	db *gorm.DB
}

func (s listenerStore) Add(ctx context.Context, userID, channelID uint) error {
	return models.AddListenerBinding(s.db.WithContext(ctx), userID, channelID)
}

func (s listenerStore) Remove(ctx context.Context, userID, channelID uint) error {
	return models.RemoveListenerBinding(s.db.WithContext(ctx), userID, channelID)
}

func (s listenerStore) Disable(ctx context.Context, userID, channelID uint) error {
	return models.DisableListenerBinding(s.db.WithContext(ctx), userID, channelID)
}

func (s listenerStore) OfChannel(ctx context.Context, channelID uint) ([]models.ListenerBinding, error) {
	return models.ListenersOfChannel(s.db.WithContext(ctx), channelID)
}

func (s listenerStore) OfUser(ctx context.Context, userID uint) ([]models.ListenerBinding, error) {
	return models.ChannelsListenedByUser(s.db.WithContext(ctx), userID)
}
