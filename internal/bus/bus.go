// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package bus implements the module/event bus of spec §4.6 as a typed
// wrapper over internal/pubsub: publishers JSON-encode a payload and never
// block on subscribers; in-process fan-out runs subscribers in parallel
// with per-subscriber failure isolation (spec §9 "Module manager... one
// failing module must not prevent others from receiving the event").
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ionovox/server/internal/pubsub"
)

// Well-known topics, per spec §4.6.
const (
	TopicPropagationUpdated   = "propagation-updated"
	TopicSignalStrengthChanged = "signal-strength-changed"
	TopicMUFChanged           = "muf-changed"
	TopicExternalDataUpdated  = "external-data-updated"
	TopicUserAuthenticated    = "user-authenticated"
	TopicUserRegistered       = "user-registered"
	TopicUserUnregistered     = "user-unregistered"
	TopicUserPropertiesChanged = "user-properties-changed"

	// TopicChannelStateChanged and TopicUserStateChanged carry the
	// channel-manager's "broadcast channel- and user-state changes"
	// responsibility (spec §4.2); they are not part of spec §4.6's closed
	// topic enumeration but use the same primitive.
	TopicChannelStateChanged = "channel-state-changed"
	TopicUserStateChanged    = "user-state-changed"
)

// ChannelStateChanged is the payload for TopicChannelStateChanged.
type ChannelStateChanged struct {
	ChannelID uint `json:"channel_id"`
	Removed   bool `json:"removed"`
}

// UserStateChanged is the payload for TopicUserStateChanged.
type UserStateChanged struct {
	UserID    uint `json:"user_id"`
	ChannelID uint `json:"channel_id"`
	Left      bool `json:"left"`
}

// SignalStrengthChanged is the payload for TopicSignalStrengthChanged.
// Subscribers must treat it as a hint: per spec §5, they may observe this
// notification before the pair cache is repopulated and should re-query if
// they need the authoritative value.
type SignalStrengthChanged struct {
	GridA    string  `json:"grid_a"`
	GridB    string  `json:"grid_b"`
	Strength float64 `json:"strength"`
}

// PropagationUpdated is the payload for TopicPropagationUpdated.
type PropagationUpdated struct {
	Epoch          uint64 `json:"epoch"`
	SolarFluxIndex int    `json:"solar_flux_index"`
	KIndex         int    `json:"k_index"`
}

// Bus is the typed module/event bus.
type Bus struct {
	transport pubsub.PubSub
}

// New wraps a pubsub transport as a typed event bus.
func New(transport pubsub.PubSub) *Bus {
	return &Bus{transport: transport}
}

// Publish JSON-encodes payload and publishes it on topic. Publish never
// blocks on subscribers.
func (b *Bus) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bus: encode payload for topic %s: %w", topic, err)
	}
	return b.transport.Publish(topic, data)
}

// Close releases the underlying transport.
func (b *Bus) Close() error {
	return b.transport.Close()
}

// Handler decodes and reacts to one message on a topic. A Handler that
// returns an error or panics never prevents delivery to sibling handlers.
type Handler func(ctx context.Context, data []byte) error

// SubscribeFunc subscribes a single in-process handler to topic and runs it
// on every message delivered to this subscription until ctx is cancelled.
// Multiple handlers subscribed to the same topic each get their own
// subscription and run independently, satisfying the per-subscriber
// failure-isolation requirement without coupling handlers to each other.
func (b *Bus) SubscribeFunc(ctx context.Context, topic string, handler Handler) {
	sub := b.transport.Subscribe(topic)
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-sub.Channel():
				if !ok {
					return
				}
				runIsolated(ctx, topic, handler, data)
			}
		}
	}()
}

// runIsolated invokes handler, recovering any panic and logging any error,
// so a single failing module can never block or crash delivery to others.
func runIsolated(ctx context.Context, topic string, handler Handler, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "bus subscriber panicked", "topic", topic, "panic", r)
		}
	}()
	if err := handler(ctx, data); err != nil {
		slog.ErrorContext(ctx, "bus subscriber failed", "topic", topic, "error", err)
	}
}

// Decode is a convenience helper for handlers to unmarshal a typed payload.
func Decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("bus: decode payload: %w", err)
	}
	return v, nil
}
