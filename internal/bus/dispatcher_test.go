// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package bus_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ionovox/server/internal/bus"
	"github.com/stretchr/testify/assert"
)

func TestDispatcherIsolatesFailingHandler(t *testing.T) {
	t.Parallel()
	d := bus.NewDispatcher()

	var goodRan int32
	d.On("topic", func(_ context.Context, _ []byte) error {
		return errors.New("boom")
	})
	d.On("topic", func(_ context.Context, _ []byte) error {
		atomic.AddInt32(&goodRan, 1)
		return nil
	})

	errs := d.Dispatch(context.Background(), "topic", nil)
	assert.Len(t, errs, 2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&goodRan))
}

func TestDispatcherIsolatesPanickingHandler(t *testing.T) {
	t.Parallel()
	d := bus.NewDispatcher()

	var goodRan int32
	d.On("topic", func(_ context.Context, _ []byte) error {
		panic("handler exploded")
	})
	d.On("topic", func(_ context.Context, _ []byte) error {
		atomic.AddInt32(&goodRan, 1)
		return nil
	})

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), "topic", nil)
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&goodRan))
}

func TestDispatcherNoHandlersReturnsNil(t *testing.T) {
	t.Parallel()
	d := bus.NewDispatcher()
	assert.Nil(t, d.Dispatch(context.Background(), "nothing", nil))
}
