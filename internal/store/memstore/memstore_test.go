// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package memstore

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/apperror"
	"github.com/ionovox/server/internal/db/models"
)

func TestNewSeedsRootUserAndChannel(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.Users().Get(ctx, models.RootUserID)
	require.NoError(t, err)
	assert.Equal(t, "root", u.Name)

	c, err := s.Channels().Get(ctx, models.RootChannelID)
	require.NoError(t, err)
	assert.Equal(t, "Root", c.Name)

	rows, err := s.ACL().ListForChannel(ctx, models.RootChannelID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.GroupAdmin, rows[0].GroupName)
	assert.Equal(t, models.PermissionAll, rows[0].AllowMask)
}

func TestUserCreateEnforcesNameUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, "alice")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	_, err = s.Users().Create(ctx, "ALICE")
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	taken, err := s.Users().NameTaken(ctx, "Alice")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUserGetByNameCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Users().Create(ctx, "Bob")
	require.NoError(t, err)

	got, err := s.Users().GetByName(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)
}

func TestUserDeleteCascadesPropertiesAndListeners(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.Users().Create(ctx, "carol")
	require.NoError(t, err)
	require.NoError(t, s.Properties().Set(ctx, u.ID, models.PropertyEmail, "carol@example.com"))
	require.NoError(t, s.Listeners().Add(ctx, u.ID, models.RootChannelID))

	require.NoError(t, s.Users().Delete(ctx, u.ID))

	_, ok, err := s.Properties().Get(ctx, u.ID, models.PropertyEmail)
	require.NoError(t, err)
	assert.False(t, ok)

	bindings, err := s.Listeners().OfUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, bindings)
}

func TestChannelCreateRejectsMissingParent(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Channels().Create(ctx, &models.Channel{ParentID: 999})
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestChannelDeleteCascadesACLAndLinks(t *testing.T) {
	s := New()
	ctx := context.Background()

	child := &models.Channel{Name: "HF Net", ParentID: models.RootChannelID}
	require.NoError(t, s.Channels().Create(ctx, child))
	require.NoError(t, s.Channels().AddLink(ctx, child.ID, models.RootChannelID))
	require.NoError(t, s.ACL().Create(ctx, &models.ACLRow{ChannelID: child.ID, PrincipalKind: models.PrincipalGroup, GroupName: models.GroupAll}))

	require.NoError(t, s.Channels().Delete(ctx, child.ID))

	_, err := s.Channels().Get(ctx, child.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	links, err := s.Channels().Links(ctx)
	require.NoError(t, err)
	assert.Empty(t, links)

	rows, err := s.ACL().ListForChannel(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestChannelDeleteRejectsRoot(t *testing.T) {
	s := New()
	err := s.Channels().Delete(context.Background(), models.RootChannelID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestListenerAddIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Listeners().Add(ctx, 42, models.RootChannelID))
	require.NoError(t, s.Listeners().Add(ctx, 42, models.RootChannelID))

	bindings, err := s.Listeners().OfChannel(ctx, models.RootChannelID)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, 1.0, bindings[0].VolumeFactor)
}

func TestListenerDisablePreservesRow(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Listeners().Add(ctx, 7, models.RootChannelID))
	require.NoError(t, s.Listeners().Disable(ctx, 7, models.RootChannelID))

	bindings, err := s.Listeners().OfChannel(ctx, models.RootChannelID)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, 0.0, bindings[0].VolumeFactor)
}

func TestBanMatchingHonorsExpiry(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Bans().Add(ctx, &models.Ban{
		Address:      "10.0.0.0",
		PrefixLength: 8,
		StartTime:    now.Add(-time.Hour),
		Duration:     time.Minute,
	}))

	matched, err := s.Bans().Matching(ctx, net.ParseIP("10.1.2.3"), "", "", now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, matched, "ban should have expired")
}

func TestGroupMembershipForSessionRoundTrips(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Groups().Add(ctx, 1, models.RootChannelID, models.GroupModerator))
	names, err := s.Groups().ForSession(ctx, 1, models.RootChannelID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.GroupModerator}, names)

	require.NoError(t, s.Groups().ClearSession(ctx, 1))
	names, err = s.Groups().ForSession(ctx, 1, models.RootChannelID)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestTextureSetGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	blob := &models.TextureBlob{UserID: models.RootUserID, CompressedData: []byte{1, 2, 3}, ContentType: "image/png"}
	require.NoError(t, s.Textures().Set(ctx, blob))

	got, err := s.Textures().Get(ctx, models.RootUserID)
	require.NoError(t, err)
	assert.Equal(t, blob.CompressedData, got.CompressedData)

	require.NoError(t, s.Textures().Delete(ctx, models.RootUserID))
	_, err = s.Textures().Get(ctx, models.RootUserID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
