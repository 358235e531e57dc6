// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models

import "gorm.io/gorm"

// PropertyTag enumerates the small-integer property keys of spec §3's
// "property map keyed by small integer tag".
type PropertyTag uint8

const (
	PropertyComment PropertyTag = iota
	PropertyEmail
	PropertyTextureBlobID
	PropertyLastSeen
	PropertyLastChannelID
	PropertyGridLocator
	PropertyPreferredBand
	PropertyAdminFlag
	PropertyListeningOnlyFlag
	PropertyAntennaGainDBI
	PropertyAntennaAzimuthDeg
)

// Property is one (user_id, tag) -> string entry of the external-store
// contract in spec §4.5.
type Property struct {
	UserID uint        `json:"user_id" gorm:"primaryKey"`
	Tag    PropertyTag `json:"tag" gorm:"primaryKey"`
	Value  string      `json:"value"`
}

func (Property) TableName() string {
	return "properties"
}

func GetProperty(db *gorm.DB, userID uint, tag PropertyTag) (string, bool) {
	var p Property
	err := db.Where("user_id = ? AND tag = ?", userID, tag).First(&p).Error
	if err != nil {
		return "", false
	}
	return p.Value, true
}

func SetProperty(db *gorm.DB, userID uint, tag PropertyTag, value string) error {
	p := Property{UserID: userID, Tag: tag, Value: value}
	return db.Save(&p).Error
}

func DeleteProperty(db *gorm.DB, userID uint, tag PropertyTag) error {
	return db.Where("user_id = ? AND tag = ?", userID, tag).Delete(&Property{}).Error
}
