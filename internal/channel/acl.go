// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package channel

import (
	"context"
	"fmt"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/ionovox/server/internal/db/models"
)

// permCacheKey identifies one cached permission evaluation.
type permCacheKey struct {
	UserID    uint
	ChannelID uint
}

// permCacheEntry pairs a cached result with a fingerprint of the data that
// produced it, so a stale entry is detected (and recomputed) precisely
// rather than by bumping a coarse generation counter on every change.
type permCacheEntry struct {
	Fingerprint uint64
	Allow       models.Permission
}

type fingerprintInput struct {
	UserID    uint
	Ancestors []uint
	Groups    []string
	Rows      []models.ACLRow
}

// EffectivePermission computes U's permission bitmask in channelID by
// walking root-to-node, per spec §4.2: at each ancestor, a matching row's
// allow bits are added to the running grant and its deny bits are removed;
// apply-here rows only contribute at channelID itself, apply-subs rows
// contribute at any ancestor (including channelID). groups is the set of
// group names U currently holds (the built-in @all group is implicit and
// need not be included).
func (m *Manager) EffectivePermission(ctx context.Context, userID, channelID uint, groups []string) (models.Permission, error) {
	m.mu.RLock()
	ancestors, err := m.ancestorsLocked(channelID)
	if err != nil {
		m.mu.RUnlock()
		return 0, err
	}

	var rows []models.ACLRow
	for _, node := range ancestors {
		applies := node == channelID
		for _, row := range m.aclByChannel[node] {
			if !matchesPrincipal(row, userID, groups) {
				continue
			}
			if applies && !row.ApplyHere && !row.ApplySubs {
				continue
			}
			if !applies && !row.ApplySubs {
				continue
			}
			rows = append(rows, row)
		}
	}

	key := permCacheKey{UserID: userID, ChannelID: channelID}
	fp, err := fingerprint(fingerprintInput{UserID: userID, Ancestors: ancestors, Groups: groups, Rows: rows})
	if err != nil {
		m.mu.RUnlock()
		return 0, fmt.Errorf("channel: fingerprint acl inputs: %w", err)
	}
	if cached, ok := m.permCache.Load(key); ok && cached.Fingerprint == fp {
		m.mu.RUnlock()
		return cached.Allow, nil
	}
	m.mu.RUnlock()

	var grant models.Permission
	for _, row := range rows {
		grant |= row.AllowMask
		grant &^= row.DenyMask
	}

	m.permCache.Store(key, permCacheEntry{Fingerprint: fp, Allow: grant})
	return grant, nil
}

func matchesPrincipal(row models.ACLRow, userID uint, groups []string) bool {
	switch row.PrincipalKind {
	case models.PrincipalUser:
		return row.UserID == userID
	case models.PrincipalGroup:
		if row.GroupName == models.GroupAll {
			return true
		}
		for _, g := range groups {
			if g == row.GroupName {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func fingerprint(in fingerprintInput) (uint64, error) {
	return hashstructure.Hash(in, hashstructure.FormatV2, nil)
}

// CreateACLRow persists row and invalidates every cached evaluation whose
// contributing data could include it: every (U, C) where C is row.ChannelID
// or a descendant of it.
func (m *Manager) CreateACLRow(ctx context.Context, row *models.ACLRow) error {
	if err := m.store.ACL().Create(ctx, row); err != nil {
		return fmt.Errorf("channel: create acl row: %w", err)
	}
	m.mu.Lock()
	m.aclByChannel[row.ChannelID] = append(m.aclByChannel[row.ChannelID], *row)
	m.invalidateSubtreeLocked(row.ChannelID)
	m.mu.Unlock()
	m.notifyMutate()
	return nil
}

// DeleteACLRow removes an ACL row by id and invalidates the same set
// CreateACLRow would.
func (m *Manager) DeleteACLRow(ctx context.Context, channelID, id uint) error {
	if err := m.store.ACL().Delete(ctx, id); err != nil {
		return fmt.Errorf("channel: delete acl row: %w", err)
	}
	m.mu.Lock()
	rows := m.aclByChannel[channelID]
	for i, r := range rows {
		if r.ID == id {
			m.aclByChannel[channelID] = append(rows[:i], rows[i+1:]...)
			break
		}
	}
	m.invalidateSubtreeLocked(channelID)
	m.mu.Unlock()
	m.notifyMutate()
	return nil
}

// PermCacheSize reports the number of cached permission evaluations
// currently held, for metrics export.
func (m *Manager) PermCacheSize() int {
	size := 0
	m.permCache.Range(func(permCacheKey, permCacheEntry) bool {
		size++
		return true
	})
	return size
}

// InvalidateUser drops every cached permission entry for userID, called
// when its group memberships change (spec §4.2: "any ACL row, group
// membership, or channel parentage changes" invalidates the cache).
func (m *Manager) InvalidateUser(userID uint) {
	m.permCache.Range(func(key permCacheKey, _ permCacheEntry) bool {
		if key.UserID == userID {
			m.permCache.Delete(key)
		}
		return true
	})
}

// invalidateSubtreeLocked drops every cached permission entry whose
// channel is rootID or a descendant of it. Callers must hold m.mu for
// writing.
func (m *Manager) invalidateSubtreeLocked(rootID uint) {
	affected := map[uint]struct{}{rootID: {}}
	queue := []uint{rootID}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range m.childrenOf[next] {
			if _, ok := affected[child]; !ok {
				affected[child] = struct{}{}
				queue = append(queue, child)
			}
		}
	}
	m.permCache.Range(func(key permCacheKey, _ permCacheEntry) bool {
		if _, ok := affected[key.ChannelID]; ok {
			m.permCache.Delete(key)
		}
		return true
	})
}
