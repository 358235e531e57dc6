// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models

import "gorm.io/gorm"

// Permission is one bit of the fixed permission enumeration of spec §3.
type Permission uint32

const (
	PermEnter Permission = 1 << iota
	PermTraverse
	PermSpeak
	PermWhisper
	PermTextMessage
	PermMakeChannel
	PermLinkChannel
	PermMuteDeafen
	PermMove
	PermListen
	PermMakeTempChannel
	PermSetGridLocator
	PermModifyBandplan
	PermConfigurePropagation
)

// PermissionAll is the union of every defined permission bit, used to seed
// the default administrator ACL row.
const PermissionAll = PermEnter | PermTraverse | PermSpeak | PermWhisper |
	PermTextMessage | PermMakeChannel | PermLinkChannel | PermMuteDeafen |
	PermMove | PermListen | PermMakeTempChannel | PermSetGridLocator |
	PermModifyBandplan | PermConfigurePropagation

// PrincipalKind distinguishes the two ways an ACL row can target actors,
// per spec §6's `#<user>` / `~<group>` / `@all` / `@admin` / `@moderator`
// principal syntax.
type PrincipalKind uint8

const (
	PrincipalUser PrincipalKind = iota
	PrincipalGroup
)

// ACLRow is one permission rule attached to a channel, per spec §3.
type ACLRow struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	ChannelID     uint          `json:"channel_id" gorm:"index"`
	PrincipalKind PrincipalKind `json:"principal_kind"`
	// UserID is set when PrincipalKind == PrincipalUser.
	UserID uint `json:"user_id,omitempty"`
	// GroupName is set when PrincipalKind == PrincipalGroup (including the
	// built-in @all/@admin/@moderator groups).
	GroupName  string     `json:"group_name,omitempty"`
	AllowMask  Permission `json:"allow_mask"`
	DenyMask   Permission `json:"deny_mask"`
	ApplyHere  bool       `json:"apply_here"`
	ApplySubs  bool       `json:"apply_subs"`
	Inherited  bool       `json:"inherited"`
}

func (ACLRow) TableName() string {
	return "acl_rows"
}

// Built-in group names, per spec §6.
const (
	GroupAll       = "@all"
	GroupAdmin     = "@admin"
	GroupModerator = "@moderator"
)

func ListACLRowsForChannel(db *gorm.DB, channelID uint) ([]ACLRow, error) {
	var rows []ACLRow
	err := db.Where("channel_id = ?", channelID).Find(&rows).Error
	return rows, err
}

// ListACLRowsOnPath returns every ACL row attached to any channel in
// ancestorIDs (root-to-node inclusive), the set internal/channel's
// permission evaluator walks per spec §4.2.
func ListACLRowsOnPath(db *gorm.DB, ancestorIDs []uint) ([]ACLRow, error) {
	var rows []ACLRow
	err := db.Where("channel_id IN ?", ancestorIDs).Find(&rows).Error
	return rows, err
}

func CreateACLRow(db *gorm.DB, row *ACLRow) error {
	return db.Create(row).Error
}

func DeleteACLRow(db *gorm.DB, id uint) error {
	return db.Delete(&ACLRow{}, id).Error
}

type ACLSeeder struct {
	rows []ACLRow
}

func NewACLSeeder(rows []ACLRow) ACLSeeder {
	return ACLSeeder{rows: rows}
}

func (s ACLSeeder) Seed(db *gorm.DB) error {
	if len(s.rows) == 0 {
		s.rows = []ACLRow{{
			ChannelID:     RootChannelID,
			PrincipalKind: PrincipalGroup,
			GroupName:     GroupAdmin,
			AllowMask:     PermissionAll,
			ApplyHere:     true,
			ApplySubs:     true,
		}}
	}
	return db.CreateInBatches(s.rows, len(s.rows)).Error
}

func (s ACLSeeder) Clear(db *gorm.DB) error {
	return db.Where("channel_id = ?", RootChannelID).Delete(&ACLRow{}).Error
}
