// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/ionovox/server/internal/db/models"
)

type channelStore struct {
	db *gorm.DB
}

func (s channelStore) Create(ctx context.Context, c *models.Channel) error {
	return models.CreateChannel(s.db.WithContext(ctx), c)
}

func (s channelStore) Get(ctx context.Context, id uint) (models.Channel, error) {
	c, err := models.FindChannelByID(s.db.WithContext(ctx), id)
	if err != nil {
		return c, wrapNotFound(err)
	}
	return c, nil
}

func (s channelStore) List(ctx context.Context) ([]models.Channel, error) {
	return models.ListChannels(s.db.WithContext(ctx))
}

func (s channelStore) Delete(ctx context.Context, id uint) error {
	return models.DeleteChannel(s.db.WithContext(ctx), id)
}

func (s channelStore) Links(ctx context.Context) ([]models.ChannelLink, error) {
	return models.ListChannelLinks(s.db.WithContext(ctx))
}

func (s channelStore) AddLink(ctx context.Context, a, b uint) error {
	link := models.ChannelLink{ChannelAID: a, ChannelBID: b}
	return s.db.WithContext(ctx).Clauses().Create(&link).Error
}

func (s channelStore) RemoveLink(ctx context.Context, a, b uint) error {
	return s.db.WithContext(ctx).
		Where("(channel_a_id = ? AND channel_b_id = ?) OR (channel_a_id = ? AND channel_b_id = ?)", a, b, b, a).
		Delete(&models.ChannelLink{}).Error
}
