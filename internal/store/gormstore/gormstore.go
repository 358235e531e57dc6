// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"gorm.io/gorm"

	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/store"
)

// Store is the GORM-backed implementation of store.Store. Each accessor
// returns a thin wrapper scoped to one concern, all sharing the same
// underlying *gorm.DB so every mutation goes through the same connection
// pool and transaction semantics.
type Store struct {
	db         *gorm.DB
	users      userStore
	properties propertyStore
	channels   channelStore
	acl        aclStore
	bans       banStore
	textures   textureStore
	groups     groupStore
	listeners  listenerStore
}

// New opens the configured database and returns a ready-to-use Store.
func New(cfg *config.Config) (*Store, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:         db,
		users:      userStore{db: db},
		properties: propertyStore{db: db},
		channels:   channelStore{db: db},
		acl:        aclStore{db: db},
		bans:       banStore{db: db},
		textures:   textureStore{db: db},
		groups:     groupStore{db: db},
		listeners:  listenerStore{db: db},
	}, nil
}

func (s *Store) Users() store.UserStore           { return s.users }
func (s *Store) Properties() store.PropertyStore  { return s.properties }
func (s *Store) Channels() store.ChannelStore     { return s.channels }
func (s *Store) ACL() store.ACLStore              { return s.acl }
func (s *Store) Bans() store.BanStore             { return s.bans }
func (s *Store) Textures() store.TextureStore     { return s.textures }
func (s *Store) Groups() store.GroupStore         { return s.groups }
func (s *Store) Listeners() store.ListenerStore   { return s.listeners }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
