// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models

import "gorm.io/gorm"

// VolumeAdjustmentType selects how ListenerBinding.VolumeFactor combines
// with a channel's audio, per spec §3.
type VolumeAdjustmentType uint8

const (
	VolumeMultiplicative VolumeAdjustmentType = iota
	VolumeLogarithmic
)

// ListenerBinding is a (user, channel) subscription to a channel's audio
// without membership, per spec §3/§4.2. Disabling a listener sets
// VolumeFactor to 0 while preserving the row (spec §4.2).
type ListenerBinding struct {
	UserID       uint                 `json:"user_id" gorm:"primaryKey"`
	ChannelID    uint                 `json:"channel_id" gorm:"primaryKey"`
	VolumeType   VolumeAdjustmentType `json:"volume_type"`
	VolumeFactor float64              `json:"volume_factor"`
}

func (ListenerBinding) TableName() string {
	return "listener_bindings"
}

// NewListenerBinding constructs a binding with the identity volume
// adjustment (spec §4.2: "initializes the volume adjustment to identity").
func NewListenerBinding(userID, channelID uint) ListenerBinding {
	return ListenerBinding{UserID: userID, ChannelID: channelID, VolumeType: VolumeMultiplicative, VolumeFactor: 1.0}
}

// AddListenerBinding is a no-op if the binding already exists, per spec
// §8's idempotence law.
func AddListenerBinding(db *gorm.DB, userID, channelID uint) error {
	var existing ListenerBinding
	err := db.Where("user_id = ? AND channel_id = ?", userID, channelID).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	binding := NewListenerBinding(userID, channelID)
	return db.Create(&binding).Error
}

func RemoveListenerBinding(db *gorm.DB, userID, channelID uint) error {
	return db.Where("user_id = ? AND channel_id = ?", userID, channelID).Delete(&ListenerBinding{}).Error
}

// DisableListenerBinding zeroes the volume factor without removing the row.
func DisableListenerBinding(db *gorm.DB, userID, channelID uint) error {
	return db.Model(&ListenerBinding{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Update("volume_factor", 0).Error
}

func ListenersOfChannel(db *gorm.DB, channelID uint) ([]ListenerBinding, error) {
	var bindings []ListenerBinding
	err := db.Where("channel_id = ?", channelID).Find(&bindings).Error
	return bindings, err
}

func ChannelsListenedByUser(db *gorm.DB, userID uint) ([]ListenerBinding, error) {
	var bindings []ListenerBinding
	err := db.Where("user_id = ?", userID).Find(&bindings).Error
	return bindings, err
}
