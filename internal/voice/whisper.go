// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package voice

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/ionovox/server/internal/session"
)

// ChannelTarget names one channel a whisper slot fans out to, with an
// optional recursive flag to include its descendants (spec §4.4).
type ChannelTarget struct {
	ChannelID uint
	Recursive bool
}

// TargetSpec is the body of a VoiceTarget registration for one slot: an
// explicit session list, a channel list (each possibly recursive), and an
// optional group filter, per spec §4.4.
type TargetSpec struct {
	Sessions []uint32
	Channels []ChannelTarget
	Groups   []string
}

type whisperKey struct {
	SpeakerSession uint32
	Slot           uint8
}

// whisperCache materializes and memoizes the resolved session set for each
// registered VoiceTarget slot. Per spec §4.4 the server "resolves the set of
// ServerUser pointers once and caches it"; this cache is invalidated
// wholesale (not per-entry) through the channel Manager's mutation hook, on
// any user join/leave, channel create/delete, link change, or ACL change,
// since those events are rare relative to voice-packet routing and a coarse
// invalidation keeps the hot path lock-free. Group-membership changes made
// through store.GroupStore do not invalidate it.
type whisperCache struct {
	specs    *xsync.Map[whisperKey, TargetSpec]
	resolved *xsync.Map[whisperKey, []uint32]
}

func newWhisperCache() *whisperCache {
	return &whisperCache{
		specs:    xsync.NewMap[whisperKey, TargetSpec](),
		resolved: xsync.NewMap[whisperKey, []uint32](),
	}
}

// RegisterTarget records spec for (speakerSessionID, slot) and drops any
// previously materialized set for that slot.
func (r *Router) RegisterTarget(speakerSessionID uint32, slot uint8, spec TargetSpec) {
	key := whisperKey{SpeakerSession: speakerSessionID, Slot: slot}
	r.whispers.specs.Store(key, spec)
	r.whispers.resolved.Delete(key)
}

// InvalidateAll drops every materialized whisper set without forgetting the
// registered specs, so the next use of a slot recomputes it from scratch.
func (r *Router) InvalidateAll() {
	r.whispers.resolved.Clear()
}

// whisperCandidates resolves (and memoizes) the receiver set for speaker's
// slot, per spec §4.4's VoiceTarget materialization.
func (r *Router) whisperCandidates(ctx context.Context, speaker *session.Session, slot uint8) ([]candidate, error) {
	key := whisperKey{SpeakerSession: speaker.ID, Slot: slot}

	if ids, ok := r.whispers.resolved.Load(key); ok {
		return r.candidatesFromSessionIDs(ids), nil
	}

	spec, ok := r.whispers.specs.Load(key)
	if !ok {
		return nil, nil
	}

	ids := map[uint32]struct{}{}
	for _, sid := range spec.Sessions {
		ids[sid] = struct{}{}
	}
	for _, ct := range spec.Channels {
		r.collectChannelTarget(ctx, ct, spec.Groups, ids)
	}

	out := make([]uint32, 0, len(ids))
	for sid := range ids {
		out = append(out, sid)
	}
	r.whispers.resolved.Store(key, out)
	return r.candidatesFromSessionIDs(out), nil
}

func (r *Router) collectChannelTarget(ctx context.Context, ct ChannelTarget, groups []string, ids map[uint32]struct{}) {
	channelIDs := []uint{ct.ChannelID}
	if ct.Recursive {
		channelIDs = append(channelIDs, r.channels.Descendants(ct.ChannelID)...)
	}
	for _, cid := range channelIDs {
		for _, sid := range r.channels.Members(cid) {
			if len(groups) > 0 && !r.memberHoldsAnyGroup(ctx, sid, cid, groups) {
				continue
			}
			ids[sid] = struct{}{}
		}
	}
}

func (r *Router) memberHoldsAnyGroup(ctx context.Context, sessionID uint32, channelID uint, groups []string) bool {
	if r.groups == nil {
		return false
	}
	held, err := r.groups.ForSession(ctx, sessionID, channelID)
	if err != nil {
		return false
	}
	for _, h := range held {
		for _, want := range groups {
			if h == want {
				return true
			}
		}
	}
	return false
}

func (r *Router) candidatesFromSessionIDs(ids []uint32) []candidate {
	out := make([]candidate, 0, len(ids))
	for _, sid := range ids {
		if s, ok := r.sessions.BySession(sid); ok {
			out = append(out, candidate{receiver: s})
		}
	}
	return out
}
