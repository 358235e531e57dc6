// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package pubsub implements the transport the module/event bus runs on: a
// topic-keyed publish/subscribe abstraction with a Redis-backed
// implementation for multi-process deployments and an in-memory
// implementation for single-process/test use, switched on
// config.Redis.Enabled.
package pubsub

import (
	"context"

	"github.com/ionovox/server/internal/config"
)

// PubSub is a topic-keyed fan-out transport. Messages published to a topic
// are delivered to every subscription currently open on that topic; a
// subscription opened after a Publish call never sees that message.
type PubSub interface {
	Publish(topic string, message []byte) error
	Subscribe(topic string) Subscription
	Close() error
}

// Subscription is a single subscriber's view of a topic.
type Subscription interface {
	Close() error
	Channel() <-chan []byte
}

// MakePubSub creates a new pub/sub transport, backed by Redis when enabled
// or an in-process implementation otherwise.
func MakePubSub(ctx context.Context, cfg *config.Config) (PubSub, error) {
	if cfg.Redis.Enabled {
		return makePubSubFromRedis(ctx, cfg)
	}
	return makeInMemoryPubSub()
}
