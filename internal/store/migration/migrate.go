// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

//nolint:golint,wrapcheck
package migration

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/ionovox/server/internal/db/models"
)

// Migrate runs versioned schema migrations after AutoMigrate (gormstore.Open
// calls it second), for changes AutoMigrate cannot express (column renames,
// backfills).
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			// Listener bindings predating the volume_type/volume_factor
			// split stored no volume at all; backfill identity.
			ID: "202607010000",
			Migrate: func(tx *gorm.DB) error {
				if !tx.Migrator().HasTable(&models.ListenerBinding{}) {
					return nil
				}
				if !tx.Migrator().HasColumn(&models.ListenerBinding{}, "volume_factor") {
					return nil
				}
				return tx.Model(&models.ListenerBinding{}).
					Where("volume_factor = 0 AND volume_type = 0").
					Update("volume_factor", 1.0).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return nil
			},
		},
	})

	return m.Migrate()
}
