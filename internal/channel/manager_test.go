// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package channel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionovox/server/internal/channel"
	"github.com/ionovox/server/internal/db/models"
	"github.com/ionovox/server/internal/store/memstore"
)

func newManager(t *testing.T) (*channel.Manager, *memstore.Store) {
	t.Helper()
	backing := memstore.New()
	m, err := channel.New(context.Background(), backing, nil)
	require.NoError(t, err)
	return m, backing
}

func TestEffectivePermissionInheritsFromAncestors(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	child := &models.Channel{Name: "40m", ParentID: models.RootChannelID}
	require.NoError(t, m.CreateChannel(ctx, child))

	grant, err := m.EffectivePermission(ctx, 99, child.ID, []string{models.GroupModerator})
	require.NoError(t, err)
	assert.Zero(t, grant, "no ACL row yet, permission should be empty")

	require.NoError(t, m.CreateACLRow(ctx, &models.ACLRow{
		ChannelID:     models.RootChannelID,
		PrincipalKind: models.PrincipalGroup,
		GroupName:     models.GroupAll,
		AllowMask:     models.PermEnter | models.PermTraverse,
		ApplySubs:     true,
	}))

	grant, err = m.EffectivePermission(ctx, 99, child.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PermEnter|models.PermTraverse, grant)
}

func TestEffectivePermissionDenyOverridesAncestorAllow(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	child := &models.Channel{Name: "80m", ParentID: models.RootChannelID}
	require.NoError(t, m.CreateChannel(ctx, child))

	require.NoError(t, m.CreateACLRow(ctx, &models.ACLRow{
		ChannelID:     models.RootChannelID,
		PrincipalKind: models.PrincipalGroup,
		GroupName:     models.GroupAll,
		AllowMask:     models.PermSpeak,
		ApplySubs:     true,
	}))
	require.NoError(t, m.CreateACLRow(ctx, &models.ACLRow{
		ChannelID:     child.ID,
		PrincipalKind: models.PrincipalGroup,
		GroupName:     models.GroupAll,
		DenyMask:      models.PermSpeak,
		ApplyHere:     true,
	}))

	grant, err := m.EffectivePermission(ctx, 1, child.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, grant&models.PermSpeak, "node-local deny should revoke the inherited allow")
}

func TestEffectivePermissionApplyHereDoesNotLeakToDescendants(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	child := &models.Channel{Name: "20m", ParentID: models.RootChannelID}
	require.NoError(t, m.CreateChannel(ctx, child))
	grandchild := &models.Channel{Name: "20m-A", ParentID: child.ID}
	require.NoError(t, m.CreateChannel(ctx, grandchild))

	require.NoError(t, m.CreateACLRow(ctx, &models.ACLRow{
		ChannelID:     child.ID,
		PrincipalKind: models.PrincipalGroup,
		GroupName:     models.GroupAll,
		AllowMask:     models.PermSpeak,
		ApplyHere:     true,
	}))

	grant, err := m.EffectivePermission(ctx, 1, grandchild.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, grant&models.PermSpeak)
}

func TestEffectivePermissionCacheInvalidatesOnACLChange(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	row := &models.ACLRow{
		ChannelID:     models.RootChannelID,
		PrincipalKind: models.PrincipalGroup,
		GroupName:     models.GroupAll,
		AllowMask:     models.PermEnter,
		ApplySubs:     true,
	}
	require.NoError(t, m.CreateACLRow(ctx, row))

	first, err := m.EffectivePermission(ctx, 5, models.RootChannelID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PermEnter, first)

	require.NoError(t, m.DeleteACLRow(ctx, models.RootChannelID, row.ID))

	second, err := m.EffectivePermission(ctx, 5, models.RootChannelID, nil)
	require.NoError(t, err)
	assert.Zero(t, second, "deleting the contributing row should invalidate the cached result")
}

func TestListenerAddRemoveDisable(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddListener(ctx, 3, models.RootChannelID))
	require.NoError(t, m.AddListener(ctx, 3, models.RootChannelID)) // idempotent

	bindings := m.ListenersOf(models.RootChannelID)
	require.Len(t, bindings, 1)
	assert.Equal(t, 1.0, bindings[0].VolumeFactor)

	require.NoError(t, m.DisableListener(ctx, 3, models.RootChannelID))
	b, ok := m.IsListener(3, models.RootChannelID)
	require.True(t, ok)
	assert.Zero(t, b.VolumeFactor)

	require.NoError(t, m.RemoveListener(ctx, 3, models.RootChannelID))
	_, ok = m.IsListener(3, models.RootChannelID)
	assert.False(t, ok)
}

func TestChannelDeleteClearsLinksAndMembers(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	child := &models.Channel{Name: "Net Control", ParentID: models.RootChannelID}
	require.NoError(t, m.CreateChannel(ctx, child))
	require.NoError(t, m.AddLink(ctx, child.ID, models.RootChannelID))
	m.JoinChannel(1001, child.ID)

	require.NoError(t, m.DeleteChannel(ctx, child.ID))

	assert.Empty(t, m.LinkedChannels(models.RootChannelID))
	assert.Empty(t, m.Members(child.ID))
}

func TestJoinChannelMovesSessionBetweenChannels(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	child := &models.Channel{Name: "Roundtable", ParentID: models.RootChannelID}
	require.NoError(t, m.CreateChannel(ctx, child))

	m.JoinChannel(42, models.RootChannelID)
	assert.Contains(t, m.Members(models.RootChannelID), uint32(42))

	m.JoinChannel(42, child.ID)
	assert.NotContains(t, m.Members(models.RootChannelID), uint32(42))
	assert.Contains(t, m.Members(child.ID), uint32(42))

	m.LeaveAll(42)
	assert.NotContains(t, m.Members(child.ID), uint32(42))
}
