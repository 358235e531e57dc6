// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package pubsub

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

const subscriberBuffer = 16

func makeInMemoryPubSub() (PubSub, error) {
	return &inMemoryPubSub{
		topics: xsync.NewMap[string, *topicSubscribers](),
	}, nil
}

type topicSubscribers struct {
	mu   sync.Mutex
	subs map[*inMemorySubscription]struct{}
}

type inMemoryPubSub struct {
	topics *xsync.Map[string, *topicSubscribers]
}

func (ps *inMemoryPubSub) topicFor(topic string) *topicSubscribers {
	t, _ := ps.topics.LoadOrCompute(topic, func() (*topicSubscribers, bool) {
		return &topicSubscribers{subs: make(map[*inMemorySubscription]struct{})}, false
	})
	return t
}

func (ps *inMemoryPubSub) Publish(topic string, message []byte) error {
	t, ok := ps.topics.Load(topic)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for sub := range t.subs {
		select {
		case sub.ch <- message:
		default:
			// Slow subscriber: drop rather than block the publisher.
		}
	}
	return nil
}

func (ps *inMemoryPubSub) Subscribe(topic string) Subscription {
	t := ps.topicFor(topic)
	sub := &inMemorySubscription{
		ch:    make(chan []byte, subscriberBuffer),
		topic: t,
	}
	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()
	return sub
}

func (ps *inMemoryPubSub) Close() error {
	ps.topics.Range(func(_ string, t *topicSubscribers) bool {
		t.mu.Lock()
		for sub := range t.subs {
			close(sub.ch)
		}
		t.subs = nil
		t.mu.Unlock()
		return true
	})
	return nil
}

type inMemorySubscription struct {
	closeOnce sync.Once
	ch        chan []byte
	topic     *topicSubscribers
}

func (s *inMemorySubscription) Close() error {
	s.closeOnce.Do(func() {
		s.topic.mu.Lock()
		if _, ok := s.topic.subs[s]; ok {
			delete(s.topic.subs, s)
			close(s.ch)
		}
		s.topic.mu.Unlock()
	})
	return nil
}

func (s *inMemorySubscription) Channel() <-chan []byte {
	return s.ch
}
