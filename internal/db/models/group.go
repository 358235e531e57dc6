// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models

import "gorm.io/gorm"

// GroupMembership is temporary-group membership keyed by (session, channel)
// per spec §4.5. It is session-scoped rather than user-scoped because
// group membership (e.g. a per-call "moderator of this channel" grant) may
// only be meaningful for the lifetime of one connection.
type GroupMembership struct {
	SessionID uint32 `json:"session_id" gorm:"primaryKey"`
	ChannelID uint   `json:"channel_id" gorm:"primaryKey"`
	GroupName string `json:"group_name" gorm:"primaryKey"`
}

func (GroupMembership) TableName() string {
	return "group_memberships"
}

func AddGroupMembership(db *gorm.DB, sessionID uint32, channelID uint, group string) error {
	m := GroupMembership{SessionID: sessionID, ChannelID: channelID, GroupName: group}
	return db.Clauses().Create(&m).Error
}

func RemoveGroupMembership(db *gorm.DB, sessionID uint32, channelID uint, group string) error {
	return db.Where("session_id = ? AND channel_id = ? AND group_name = ?", sessionID, channelID, group).
		Delete(&GroupMembership{}).Error
}

func GroupsForSession(db *gorm.DB, sessionID uint32, channelID uint) ([]string, error) {
	var memberships []GroupMembership
	if err := db.Where("session_id = ? AND channel_id = ?", sessionID, channelID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	names := make([]string, len(memberships))
	for i, m := range memberships {
		names[i] = m.GroupName
	}
	return names, nil
}

// ClearSessionMemberships removes every group membership for a session,
// called when a session closes.
func ClearSessionMemberships(db *gorm.DB, sessionID uint32) error {
	return db.Where("session_id = ?", sessionID).Delete(&GroupMembership{}).Error
}
