// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package gormstore

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/config"
	"github.com/ionovox/server/internal/db/models"
)

// newTestStore opens a fresh in-memory sqlite-backed Store, seeded the same
// way a production deployment seeds on first boot.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.Config{
		Database: config.Database{Driver: config.DatabaseDriverSQLite, Database: ""},
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSeedsRootChannelAndAdminACL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.Channels().Get(ctx, models.RootChannelID)
	require.NoError(t, err)
	assert.Equal(t, "Root", c.Name)

	rows, err := s.ACL().ListForChannel(ctx, models.RootChannelID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.GroupAdmin, rows[0].GroupName)

	u, err := s.Users().Get(ctx, models.RootUserID)
	require.NoError(t, err)
	assert.Equal(t, "root", u.Name)
}

func TestUserCreateAndNameUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.Users().Create(ctx, "kf6abc")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	taken, err := s.Users().NameTaken(ctx, "KF6ABC")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestChannelCreateRejectsMissingParent(t *testing.T) {
	s := newTestStore(t)
	err := s.Channels().Create(context.Background(), &models.Channel{Name: "orphan", ParentID: 999})
	require.Error(t, err)
}

func TestChannelDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	child := &models.Channel{Name: "20m Net", ParentID: models.RootChannelID}
	require.NoError(t, s.Channels().Create(ctx, child))
	require.NoError(t, s.Channels().AddLink(ctx, child.ID, models.RootChannelID))
	require.NoError(t, s.ACL().Create(ctx, &models.ACLRow{
		ChannelID: child.ID, PrincipalKind: models.PrincipalGroup, GroupName: models.GroupAll,
	}))
	require.NoError(t, s.Listeners().Add(ctx, models.RootUserID, child.ID))

	require.NoError(t, s.Channels().Delete(ctx, child.ID))

	_, err := s.Channels().Get(ctx, child.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	links, err := s.Channels().Links(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)

	bindings, err := s.Listeners().OfChannel(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestListenerDisablePreservesRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Listeners().Add(ctx, models.RootUserID, models.RootChannelID))
	require.NoError(t, s.Listeners().Disable(ctx, models.RootUserID, models.RootChannelID))

	bindings, err := s.Listeners().OfChannel(ctx, models.RootChannelID)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, 0.0, bindings[0].VolumeFactor)
}

func TestBanMatchingCIDR(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Bans().Add(ctx, &models.Ban{
		Address:      "192.168.1.0",
		PrefixLength: 24,
		StartTime:    time.Now().Add(-time.Minute),
	}))

	matched, err := s.Bans().Matching(ctx, net.ParseIP("192.168.1.50"), "", "", time.Now())
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	matched, err = s.Bans().Matching(ctx, net.ParseIP("10.0.0.1"), "", "", time.Now())
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestPropertyGetSetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Properties().Set(ctx, models.RootUserID, models.PropertyGridLocator, "EM12"))
	v, ok, err := s.Properties().Get(ctx, models.RootUserID, models.PropertyGridLocator)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "EM12", v)

	require.NoError(t, s.Properties().Delete(ctx, models.RootUserID, models.PropertyGridLocator))
	_, ok, err = s.Properties().Get(ctx, models.RootUserID, models.PropertyGridLocator)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGroupMembershipClearedOnSessionClose(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Groups().Add(ctx, 9, models.RootChannelID, models.GroupModerator))
	require.NoError(t, s.Groups().ClearSession(ctx, 9))

	names, err := s.Groups().ForSession(ctx, 9, models.RootChannelID)
	require.NoError(t, err)
	assert.Empty(t, names)
}
