// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package memstore is a pure in-memory implementation of every
// internal/store contract, used by tests.
package memstore

import (
	"sync"

	"github.com/ionovox/server/internal/db/models"
	"github.com/ionovox/server/internal/store"
)

// Store implements store.Store entirely over plain maps guarded by a
// single mutex, so every mutating method is trivially transactional with
// respect to the others.
type Store struct {
	mu sync.RWMutex

	users      map[uint]models.User
	properties map[uint]map[models.PropertyTag]string
	nextUserID uint

	channels      map[uint]models.Channel
	links         map[[2]uint]struct{}
	nextChannelID uint

	aclRows   map[uint]models.ACLRow
	nextACLID uint

	bans      map[uint]models.Ban
	nextBanID uint

	textures map[uint]models.TextureBlob

	// groups[sessionID][channelID] is the set of group names held by that
	// session within that channel.
	groups map[uint32]map[uint]map[string]struct{}

	// listeners[channelID][userID] is one binding.
	listeners map[uint]map[uint]models.ListenerBinding
}

// New returns a Store pre-seeded with the root user and root channel, the
// same bootstrap state gormstore.Open seeds into a fresh database.
func New() *Store {
	s := &Store{
		users:         map[uint]models.User{models.RootUserID: {ID: models.RootUserID, Name: "root"}},
		properties:    map[uint]map[models.PropertyTag]string{},
		nextUserID:    models.RootUserID + 1,
		channels:      map[uint]models.Channel{models.RootChannelID: {ID: models.RootChannelID, Name: "Root", ParentID: models.RootChannelID}},
		links:         map[[2]uint]struct{}{},
		nextChannelID: models.RootChannelID + 1,
		aclRows: map[uint]models.ACLRow{
			1: {
				ID:            1,
				ChannelID:     models.RootChannelID,
				PrincipalKind: models.PrincipalGroup,
				GroupName:     models.GroupAdmin,
				AllowMask:     models.PermissionAll,
				ApplyHere:     true,
				ApplySubs:     true,
			},
		},
		nextACLID: 2,
		bans:      map[uint]models.Ban{},
		nextBanID: 1,
		textures:  map[uint]models.TextureBlob{},
		groups:    map[uint32]map[uint]map[string]struct{}{},
		listeners: map[uint]map[uint]models.ListenerBinding{},
	}
	return s
}

func (s *Store) Users() store.UserStore           { return (*userStore)(s) }
func (s *Store) Properties() store.PropertyStore  { return (*propertyStore)(s) }
func (s *Store) Channels() store.ChannelStore     { return (*channelStore)(s) }
func (s *Store) ACL() store.ACLStore              { return (*aclStore)(s) }
func (s *Store) Bans() store.BanStore             { return (*banStore)(s) }
func (s *Store) Textures() store.TextureStore     { return (*textureStore)(s) }
func (s *Store) Groups() store.GroupStore         { return (*groupStore)(s) }
func (s *Store) Listeners() store.ListenerStore   { return (*listenerStore)(s) }

var _ store.Store = (*Store)(nil)

// Close is a no-op; memstore owns no external resource.
func (s *Store) Close() error { return nil }
