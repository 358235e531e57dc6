// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package voice is the audio routing fabric of spec §4.4: for each decoded
// voice frame it produces the set of (receiver, per-packet effect) pairs and
// hands them to the transport to emit. Receiver enumeration walks channel
// membership and listener bindings; per-pair effects come from the
// propagation engine's signal-strength and fading models. The
// listening-only restriction (spec §4.4: such a user may receive but never
// speak) is enforced by the transport before a frame ever reaches Route —
// internal/server's voice-packet handlers check Session.ListeningOnly and
// drop the frame rather than ever calling Route with such a speaker.
package voice

import (
	"context"
	"fmt"
	"time"

	"github.com/ionovox/server/internal/channel"
	"github.com/ionovox/server/internal/db/models"
	"github.com/ionovox/server/internal/propagation"
	"github.com/ionovox/server/internal/session"
	"github.com/ionovox/server/internal/store"
)

// Target is the 5-bit voice-packet target field, per spec §6.
type Target uint8

const (
	TargetNormal Target = 0 // members(C) ∪ listeners(C)
	// 1..30 select a materialized whisper slot.
	TargetServerLoopback Target = 31
)

// IsWhisperSlot reports whether t names a registered whisper-target slot.
func (t Target) IsWhisperSlot() bool {
	return t >= 1 && t <= 30
}

// SessionLookup is the subset of session.Registry the router needs:
// resolving a candidate receiver by session id or by the user id a
// listener binding names.
type SessionLookup interface {
	BySession(id uint32) (*session.Session, bool)
	ByUser(userID uint) (*session.Session, bool)
}

// Delivery is one receiver's copy of a routed voice frame, with the
// per-pair effects the transport must apply before (or instead of) sending.
type Delivery struct {
	Receiver *session.Session
	Effect   Effect
}

// Effect is the per-receiver degradation/volume tag computed for one voice
// packet, per spec §4.4's per-pair effects pipeline.
type Effect struct {
	Drop        bool
	Jitter      float64
	NoiseFactor float64
	Volume      float64
}

// Router enumerates receivers and computes per-pair effects for each voice
// frame a speaker emits.
type Router struct {
	channels   *channel.Manager
	sessions   SessionLookup
	groups     store.GroupStore
	ionosphere *propagation.Ionosphere
	whispers   *whisperCache
	utcOffset  float64
	sequencers *sequencerPool
}

// Config holds the Router's fixed dependencies.
type Config struct {
	Channels       *channel.Manager
	Sessions       SessionLookup
	Groups         store.GroupStore
	Ionosphere     *propagation.Ionosphere
	UTCOffsetHours float64
}

// NewRouter constructs a Router. cfg.Ionosphere may be nil in deployments
// that never set a grid locator, in which case every pair passes through
// with an identity effect (spec §4.4 step 1). cfg.Groups may be nil if no
// whisper slot ever uses a group filter.
func NewRouter(cfg Config) *Router {
	return &Router{
		channels:   cfg.Channels,
		sessions:   cfg.Sessions,
		groups:     cfg.Groups,
		ionosphere: cfg.Ionosphere,
		whispers:   newWhisperCache(),
		utcOffset:  cfg.UTCOffsetHours,
		sequencers: newSequencerPool(),
	}
}

// Route enumerates the deliveries for one voice frame from speaker in
// channelID targeting target, excluding the speaker itself (except for
// TargetServerLoopback, whose only receiver is the speaker), server-deafened
// receivers, and receivers who have blocked the speaker (spec §4.4).
func (r *Router) Route(ctx context.Context, speaker *session.Session, channelID uint, target Target) ([]Delivery, error) {
	candidates, err := r.candidates(ctx, speaker, channelID, target)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]Delivery, 0, len(candidates))
	for _, c := range candidates {
		if c.receiver.ID == speaker.ID && target != TargetServerLoopback {
			continue
		}
		if c.receiver.ServerDeafened() {
			continue
		}
		if c.receiver.Blocks(speaker.UserID()) {
			continue
		}
		effect, err := r.pairEffect(speaker, c.receiver, now)
		if err != nil {
			// A single pair's effect computation failing (e.g. a malformed
			// grid locator slipping past validation) drops only that
			// receiver, never the rest of the packet's deliveries.
			continue
		}
		if effect.Drop {
			out = append(out, Delivery{Receiver: c.receiver, Effect: effect})
			continue
		}
		if c.listening {
			effect.Volume = applyListenerVolume(effect.Volume, c.binding)
		}
		out = append(out, Delivery{Receiver: c.receiver, Effect: effect})
	}
	return out, nil
}

type candidate struct {
	receiver  *session.Session
	listening bool
	binding   models.ListenerBinding
}

func (r *Router) candidates(ctx context.Context, speaker *session.Session, channelID uint, target Target) ([]candidate, error) {
	switch {
	case target == TargetNormal:
		return r.normalCandidates(channelID), nil
	case target.IsWhisperSlot():
		return r.whisperCandidates(ctx, speaker, uint8(target))
	case target == TargetServerLoopback:
		return []candidate{{receiver: speaker}}, nil
	default:
		return nil, fmt.Errorf("voice: unsupported target %d", target)
	}
}

// normalCandidates enumerates members(C) ∪ listeners(C) for channelID, then
// does the same for every channel permanently linked to it (spec
// §4.2/§4.3: audio spoken in one linked channel reaches the other's
// occupants too). Linked channels are not followed transitively — a link
// is a direct routing edge, not a path.
func (r *Router) normalCandidates(channelID uint) []candidate {
	out := r.channelCandidates(channelID)
	for _, linked := range r.channels.LinkedChannels(channelID) {
		out = append(out, r.channelCandidates(linked)...)
	}
	return out
}

func (r *Router) channelCandidates(channelID uint) []candidate {
	var out []candidate
	for _, sid := range r.channels.Members(channelID) {
		if s, ok := r.sessions.BySession(sid); ok {
			out = append(out, candidate{receiver: s})
		}
	}
	for _, b := range r.channels.ListenersOf(channelID) {
		if s, ok := r.sessions.ByUser(b.UserID); ok {
			out = append(out, candidate{receiver: s, listening: true, binding: b})
		}
	}
	return out
}

// RouteOrdered computes the deliveries for one voice frame and invokes emit
// with them, guaranteeing that emit calls for a single speaker happen in
// submission order even when RouteOrdered itself is called concurrently
// from a worker pool (spec §4.4 "Ordering guarantee"). A frame that fails
// to route is still sequenced — and emit still called with a nil slice and
// the error — so a downstream jitter buffer can detect the gap.
func (r *Router) RouteOrdered(ctx context.Context, speaker *session.Session, channelID uint, target Target, emit func([]Delivery, error)) {
	r.sequencers.Submit(speaker.ID, func() {
		deliveries, err := r.Route(ctx, speaker, channelID, target)
		emit(deliveries, err)
	})
}

// CloseSpeaker tears down the per-speaker sequencer for sessionID, called
// when that session disconnects.
func (r *Router) CloseSpeaker(sessionID uint32) {
	r.sequencers.Close(sessionID)
}

func applyListenerVolume(volume float64, b models.ListenerBinding) float64 {
	switch b.VolumeType {
	case models.VolumeLogarithmic:
		return volume * logarithmicGain(b.VolumeFactor)
	default:
		return volume * b.VolumeFactor
	}
}
