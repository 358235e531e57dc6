// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models

import (
	"time"

	gorm_seeder "github.com/kachit/gorm-seeder"
	"gorm.io/gorm"
)

// RootChannelID is channel 0, the root of the channel tree (spec §3:
// "Channel 0 exists and has itself as parent").
const RootChannelID uint = 0

// Channel is one node of the tree described by spec §3/§4.2.
type Channel struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ParentID    uint      `json:"parent_id" gorm:"index"`
	Position    int       `json:"position"`
	Temporary   bool      `json:"temporary"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// ChannelLink is one undirected edge of the permanent-link overlay graph
// manually configured per spec §4.2; it is never removed by the dynamic
// "open-bands" set the propagation engine produces at runtime.
type ChannelLink struct {
	ChannelAID uint `json:"channel_a_id" gorm:"primaryKey"`
	ChannelBID uint `json:"channel_b_id" gorm:"primaryKey"`
}

func (ChannelLink) TableName() string {
	return "channel_links"
}

func FindChannelByID(db *gorm.DB, id uint) (Channel, error) {
	var c Channel
	err := db.First(&c, id).Error
	return c, err
}

func ListChannels(db *gorm.DB) ([]Channel, error) {
	var channels []Channel
	err := db.Order("position asc").Find(&channels).Error
	return channels, err
}

func ListChannelLinks(db *gorm.DB) ([]ChannelLink, error) {
	var links []ChannelLink
	err := db.Find(&links).Error
	return links, err
}

func ChannelExists(db *gorm.DB, id uint) bool {
	var count int64
	db.Model(&Channel{}).Where("id = ?", id).Count(&count)
	return count > 0
}

// CreateChannel inserts a channel transactionally, validating the parent
// exists (spec invariant: every channel other than root has a valid
// parent).
func CreateChannel(db *gorm.DB, c *Channel) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if c.ID != RootChannelID && !ChannelExists(tx, c.ParentID) {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(c).Error
	})
}

func DeleteChannel(db *gorm.DB, id uint) error {
	if id == RootChannelID {
		return gorm.ErrInvalidData
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", id).Delete(&ACLRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_id = ?", id).Delete(&ListenerBinding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("channel_a_id = ? OR channel_b_id = ?", id, id).Delete(&ChannelLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Channel{ID: id}).Error
	})
}

type ChannelsSeeder struct {
	gorm_seeder.SeederAbstract
}

func NewChannelsSeeder(cfg gorm_seeder.SeederConfiguration) ChannelsSeeder {
	return ChannelsSeeder{gorm_seeder.NewSeederAbstract(cfg)}
}

func (s *ChannelsSeeder) Seed(db *gorm.DB) error {
	root := Channel{ID: RootChannelID, Name: "Root", ParentID: RootChannelID}
	return db.Create(&root).Error
}

func (s *ChannelsSeeder) Clear(db *gorm.DB) error {
	return db.Where("id = ?", RootChannelID).Delete(&Channel{}).Error
}
