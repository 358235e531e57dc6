// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package store defines the external-store contracts of spec §4.5 as Go
// interfaces, with a GORM-backed implementation (internal/store/gormstore)
// for production and an in-memory implementation (internal/store/memstore)
// for tests. Every mutating method is
// transactional (all-or-nothing) and serializable with respect to the
// others, as spec §4.5 requires.
package store

import (
	"context"
	"net"
	"time"

	"github.com/ionovox/server/internal/db/models"
)

// UserStore is the (user_id, property_tag) -> string contract plus
// name-uniqueness enforcement for registration.
type UserStore interface {
	Create(ctx context.Context, name string) (models.User, error)
	Get(ctx context.Context, id uint) (models.User, error)
	GetByName(ctx context.Context, name string) (models.User, error)
	NameTaken(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id uint) error
	SetPasswordVerifier(ctx context.Context, id uint, verifier []byte) error
	SetCertHashes(ctx context.Context, id uint, strong, weak string) error
}

// PropertyStore is the small-integer-tag property map per user.
type PropertyStore interface {
	Get(ctx context.Context, userID uint, tag models.PropertyTag) (string, bool, error)
	Set(ctx context.Context, userID uint, tag models.PropertyTag, value string) error
	Delete(ctx context.Context, userID uint, tag models.PropertyTag) error
}

// ChannelStore is the channel tree plus permanent-link overlay.
type ChannelStore interface {
	Create(ctx context.Context, c *models.Channel) error
	Get(ctx context.Context, id uint) (models.Channel, error)
	List(ctx context.Context) ([]models.Channel, error)
	Delete(ctx context.Context, id uint) error
	Links(ctx context.Context) ([]models.ChannelLink, error)
	AddLink(ctx context.Context, a, b uint) error
	RemoveLink(ctx context.Context, a, b uint) error
}

// ACLStore is ACL rows by channel id.
type ACLStore interface {
	ListForChannel(ctx context.Context, channelID uint) ([]models.ACLRow, error)
	ListOnPath(ctx context.Context, ancestorIDs []uint) ([]models.ACLRow, error)
	Create(ctx context.Context, row *models.ACLRow) error
	Delete(ctx context.Context, id uint) error
}

// BanStore is ban list read/append/remove/query.
type BanStore interface {
	List(ctx context.Context) ([]models.Ban, error)
	Add(ctx context.Context, b *models.Ban) error
	Remove(ctx context.Context, id uint) error
	Matching(ctx context.Context, addr net.IP, username, certHash string, at time.Time) ([]models.Ban, error)
}

// TextureStore is a texture blob keyed by user id. Callers compress the
// blob with CompressTexture before Set and reverse it with
// DecompressTexture after Get; the store itself persists whatever bytes it
// is given.
type TextureStore interface {
	Get(ctx context.Context, userID uint) (models.TextureBlob, error)
	Set(ctx context.Context, blob *models.TextureBlob) error
	Delete(ctx context.Context, userID uint) error
}

// GroupStore is temporary-group membership keyed by (session, channel).
type GroupStore interface {
	Add(ctx context.Context, sessionID uint32, channelID uint, group string) error
	Remove(ctx context.Context, sessionID uint32, channelID uint, group string) error
	ForSession(ctx context.Context, sessionID uint32, channelID uint) ([]string, error)
	ClearSession(ctx context.Context, sessionID uint32) error
}

// ListenerStore is listener bindings with volume adjustment, indexed both
// by channel and by user, per spec §4.2.
type ListenerStore interface {
	Add(ctx context.Context, userID, channelID uint) error
	Remove(ctx context.Context, userID, channelID uint) error
	Disable(ctx context.Context, userID, channelID uint) error
	OfChannel(ctx context.Context, channelID uint) ([]models.ListenerBinding, error)
	OfUser(ctx context.Context, userID uint) ([]models.ListenerBinding, error)
}

// Store aggregates every external-store contract the core depends on.
type Store interface {
	Users() UserStore
	Properties() PropertyStore
	Channels() ChannelStore
	ACL() ACLStore
	Bans() BanStore
	Textures() TextureStore
	Groups() GroupStore
	Listeners() ListenerStore
	Close() error
}
