// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package bus

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Dispatcher fans an event out to every registered in-process module
// handler concurrently, bounded by errgroup.Group, with per-handler
// failure isolation: one handler's error or panic never prevents delivery
// to, or cancels, its siblings (spec §9 "Module manager... fan-out over a
// bounded worker pool with per-task failure isolation").
//
// Dispatcher is the direct in-process complement to Bus: Bus crosses
// process boundaries via pubsub, Dispatcher never leaves the process and
// is used for latency-sensitive notifications (e.g. per-packet routing
// hooks) where JSON encoding would be wasted overhead.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewDispatcher constructs an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// On registers handler for topic.
func (d *Dispatcher) On(topic string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[topic] = append(d.handlers[topic], handler)
}

// Dispatch runs every handler registered for topic concurrently and waits
// for all of them to finish. A handler's error is recorded in the returned
// slice; it never aborts its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, topic string, data []byte) []error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[topic]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	errs := make([]error, len(handlers))
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	for idx, h := range handlers {
		idx, h := idx, h
		g.Go(func() error {
			errs[idx] = runIsolatedErr(gctx, topic, h, data)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func runIsolatedErr(ctx context.Context, topic string, handler Handler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errPanic{topic: topic, recovered: r}
		}
	}()
	return handler(ctx, data)
}

type errPanic struct {
	topic     string
	recovered any
}

func (e errPanic) Error() string {
	return "bus: handler for topic " + e.topic + " panicked"
}
