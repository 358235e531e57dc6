// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package models

import (
	"time"

	gorm_seeder "github.com/kachit/gorm-seeder"
	"gorm.io/gorm"
)

// User is the persisted account record of spec §3: a unique integer id,
// a case-insensitive-unique name, an optional password verifier, an
// optional certificate hash, and a property map (see Property).
type User struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Name            string         `json:"name" gorm:"uniqueIndex:idx_users_name_ci,expression:lower(name)"`
	PasswordVerifier []byte        `json:"-"`
	CertHashStrong  string         `json:"-" gorm:"index"`
	CertHashWeak    string         `json:"-" gorm:"index"`
	Properties      []Property     `json:"properties" gorm:"foreignKey:UserID"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"-"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// RootUserID is the reserved id of the bootstrap administrator seeded into
// every fresh store, mirroring the teacher's reserved SuperAdminUser id.
const RootUserID = 1

func UserExists(db *gorm.DB, id uint) bool {
	var count int64
	db.Model(&User{}).Where("id = ?", id).Limit(1).Count(&count)
	return count > 0
}

func FindUserByID(db *gorm.DB, id uint) (User, error) {
	var user User
	err := db.Preload("Properties").First(&user, id).Error
	return user, err
}

// FindUserByName looks up a user by case-insensitive name, enforcing the
// name-uniqueness-for-registration requirement of spec §4.5.
func FindUserByName(db *gorm.DB, name string) (User, error) {
	var user User
	err := db.Preload("Properties").Where("lower(name) = lower(?)", name).First(&user).Error
	return user, err
}

func NameTaken(db *gorm.DB, name string) bool {
	var count int64
	db.Model(&User{}).Where("lower(name) = lower(?)", name).Count(&count)
	return count > 0
}

func ListUsers(db *gorm.DB) ([]User, error) {
	var users []User
	err := db.Preload("Properties").Find(&users).Error
	return users, err
}

func CountUsers(db *gorm.DB) int {
	var count int64
	db.Model(&User{}).Count(&count)
	return int(count)
}

// DeleteUser removes a user and its properties/listener bindings
// transactionally, per spec §4.5's "all mutating operations transactional"
// requirement.
func DeleteUser(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&Property{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&ListenerBinding{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&User{ID: id}).Error
	})
}

type UsersSeeder struct {
	gorm_seeder.SeederAbstract
}

func NewUsersSeeder(cfg gorm_seeder.SeederConfiguration) UsersSeeder {
	return UsersSeeder{gorm_seeder.NewSeederAbstract(cfg)}
}

func (s *UsersSeeder) Seed(db *gorm.DB) error {
	root := User{ID: RootUserID, Name: "root"}
	return db.Clauses().Create(&root).Error
}

func (s *UsersSeeder) Clear(db *gorm.DB) error {
	return db.Unscoped().Delete(&User{}, RootUserID).Error
}
