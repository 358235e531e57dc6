// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models

import "gorm.io/gorm"

// TextureBlob is the user avatar/texture image, stored xz-compressed by
// internal/store (spec §3's "texture-blob id" property, spec §4.5's
// "texture blob by user id").
type TextureBlob struct {
	UserID       uint   `json:"user_id" gorm:"primaryKey"`
	CompressedData []byte `json:"-"`
	ContentType  string `json:"content_type"`
}

func (TextureBlob) TableName() string {
	return "texture_blobs"
}

func GetTextureBlob(db *gorm.DB, userID uint) (TextureBlob, error) {
	var t TextureBlob
	err := db.First(&t, "user_id = ?", userID).Error
	return t, err
}

func SetTextureBlob(db *gorm.DB, blob *TextureBlob) error {
	return db.Save(blob).Error
}

func DeleteTextureBlob(db *gorm.DB, userID uint) error {
	return db.Where("user_id = ?", userID).Delete(&TextureBlob{}).Error
}
