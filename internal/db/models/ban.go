// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models

import (
	"net"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Ban matches an incoming connection by address prefix, username, or
// certificate hash, per spec §3.
type Ban struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	Address      string        `json:"address"`
	PrefixLength int           `json:"prefix_length"`
	Username     string        `json:"username"`
	CertHash     string        `json:"cert_hash"`
	Reason       string        `json:"reason"`
	StartTime    time.Time     `json:"start_time"`
	Duration     time.Duration `json:"duration"` // 0 = permanent
}

func (Ban) TableName() string {
	return "bans"
}

// Active reports whether the ban is in effect at t.
func (b Ban) Active(t time.Time) bool {
	if b.Duration == 0 {
		return !t.Before(b.StartTime)
	}
	return !t.Before(b.StartTime) && t.Before(b.StartTime.Add(b.Duration))
}

// Matches reports whether the ban applies to the given connection
// attributes. An empty field on the ban row is treated as a wildcard.
func (b Ban) Matches(addr net.IP, username, certHash string) bool {
	if b.Address != "" {
		_, network, err := net.ParseCIDR(cidrOf(b.Address, b.PrefixLength))
		if err != nil || addr == nil || !network.Contains(addr) {
			return false
		}
	}
	if b.Username != "" && b.Username != username {
		return false
	}
	if b.CertHash != "" && b.CertHash != certHash {
		return false
	}
	return b.Address != "" || b.Username != "" || b.CertHash != ""
}

func cidrOf(address string, prefixLength int) string {
	if prefixLength <= 0 {
		if ip := net.ParseIP(address); ip != nil && ip.To4() == nil {
			prefixLength = 128
		} else {
			prefixLength = 32
		}
	}
	return address + "/" + strconv.Itoa(prefixLength)
}

func ListBans(db *gorm.DB) ([]Ban, error) {
	var bans []Ban
	err := db.Find(&bans).Error
	return bans, err
}

func CreateBan(db *gorm.DB, b *Ban) error {
	return db.Create(b).Error
}

func RemoveBan(db *gorm.DB, id uint) error {
	return db.Delete(&Ban{}, id).Error
}
