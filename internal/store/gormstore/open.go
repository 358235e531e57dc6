// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package gormstore is the GORM-backed implementation of internal/store's
// contracts: sqlite for tests/single-node deployments, postgres otherwise, gormigrate-driven
// schema evolution, gorm-seeder-driven bootstrap seeding, and an otelgorm
// tracing plugin gated on OTLP configuration.
package gormstore

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gorm_seeder "github.com/kachit/gorm-seeder"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/db/models"
	"github.com/ionovox/server/internal/store/migration"
)

const connsPerCPU = 10
const maxIdleTime = 10 * time.Minute

// Open opens (and migrates/seeds, on first run) the configured database
// connection.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case config.DatabaseDriverPostgres:
		dialector = postgres.Open(postgresDSN(cfg))
	default:
		dialector = sqlite.Open(dsn(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Metrics.OTLPEndpoint != "" {
		if err := db.Use(otelgorm.NewPlugin()); err != nil {
			return nil, fmt.Errorf("instrument database tracing: %w", err)
		}
	}

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	if err := migration.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if err := seedIfNeeded(db, cfg); err != nil {
		return nil, fmt.Errorf("seed database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(runtime.GOMAXPROCS(0))
	sqlDB.SetMaxOpenConns(runtime.GOMAXPROCS(0) * connsPerCPU)
	sqlDB.SetConnMaxIdleTime(maxIdleTime)

	return db, nil
}

func dsn(cfg *config.Config) string {
	if cfg.DatabaseDSN != "" {
		return cfg.DatabaseDSN
	}
	return cfg.Database.Database
}

func postgresDSN(cfg *config.Config) string {
	if cfg.DatabaseDSN != "" {
		return cfg.DatabaseDSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database,
	)
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Channel{},
		&models.ChannelLink{},
		&models.ACLRow{},
		&models.ListenerBinding{},
		&models.Ban{},
		&models.TextureBlob{},
		&models.GroupMembership{},
	)
}

func seedIfNeeded(db *gorm.DB, cfg *config.Config) error {
	if models.ChannelExists(db, models.RootChannelID) {
		return nil
	}

	slog.Info("seeding fresh store with root channel, default ACL, and bootstrap admin")

	usersSeeder := models.NewUsersSeeder(gorm_seeder.SeederConfiguration{Rows: 1})
	channelsSeeder := models.NewChannelsSeeder(gorm_seeder.SeederConfiguration{Rows: 1})
	aclSeeder := models.NewACLSeeder(seedACLRows(cfg))

	stack := gorm_seeder.NewSeedersStack(db)
	stack.AddSeeder(&usersSeeder)
	stack.AddSeeder(&channelsSeeder)
	stack.AddSeeder(&aclSeeder)
	return stack.Seed()
}

func seedACLRows(cfg *config.Config) []models.ACLRow {
	if len(cfg.ACL) == 0 {
		return nil
	}
	rows := make([]models.ACLRow, 0, len(cfg.ACL))
	for _, a := range cfg.ACL {
		row := models.ACLRow{
			ChannelID: a.ChannelID,
			AllowMask: parsePermissionList(a.Allow),
			DenyMask:  parsePermissionList(a.Deny),
			ApplyHere: true,
			ApplySubs: true,
		}
		if id, ok := userPrincipalID(a.Principal); ok {
			row.PrincipalKind = models.PrincipalUser
			row.UserID = id
		} else {
			row.PrincipalKind = models.PrincipalGroup
			row.GroupName = groupPrincipalName(a.Principal)
		}
		rows = append(rows, row)
	}
	return rows
}

func userPrincipalID(principal string) (uint, bool) {
	if len(principal) < 2 || principal[0] != '#' {
		return 0, false
	}
	id, err := strconv.ParseUint(principal[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func groupPrincipalName(principal string) string {
	if len(principal) > 0 && principal[0] == '~' {
		return principal[1:]
	}
	return principal
}

var permissionNames = map[string]models.Permission{
	"enter":                models.PermEnter,
	"traverse":             models.PermTraverse,
	"speak":                models.PermSpeak,
	"whisper":              models.PermWhisper,
	"textmessage":          models.PermTextMessage,
	"makechannel":          models.PermMakeChannel,
	"linkchannel":          models.PermLinkChannel,
	"mutedeafen":           models.PermMuteDeafen,
	"move":                 models.PermMove,
	"listen":               models.PermListen,
	"maketempchannel":      models.PermMakeTempChannel,
	"setgridlocator":       models.PermSetGridLocator,
	"modifybandplan":       models.PermModifyBandplan,
	"configurepropagation": models.PermConfigurePropagation,
}

// parsePermissionList parses a comma-separated list of permission names
// (case-insensitive) from an `[acl]` line's allow/deny field (spec §6).
func parsePermissionList(csv string) models.Permission {
	var mask models.Permission
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		mask |= permissionNames[tok]
	}
	return mask
}
