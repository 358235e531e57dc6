// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package voice

import (
	"github.com/puzpuzpuz/xsync/v4"
)

// sequencerPool guarantees that work submitted for a given speaker session
// runs on a single goroutine, in submission order, even though per-pair
// effect computation may itself be dispatched across a worker pool (spec
// §5: "Per-speaker voice packets fan out in receive order"). Each speaker
// gets its own small buffered job queue and worker goroutine, started
// lazily on first use and torn down when the speaker's session closes.
type sequencerPool struct {
	queues *xsync.Map[uint32, chan func()]
}

func newSequencerPool() *sequencerPool {
	return &sequencerPool{queues: xsync.NewMap[uint32, chan func()]()}
}

const sequencerQueueDepth = 64

// Submit enqueues job for speakerID's sequencer, starting its worker
// goroutine if this is the first job submitted for that speaker.
func (p *sequencerPool) Submit(speakerID uint32, job func()) {
	q, _ := p.queues.LoadOrCompute(speakerID, func() (chan func(), bool) {
		ch := make(chan func(), sequencerQueueDepth)
		go runSequencer(ch)
		return ch, false
	})
	q <- job
}

func runSequencer(jobs chan func()) {
	for job := range jobs {
		job()
	}
}

// Close tears down speakerID's sequencer, if one was ever started. Jobs
// already queued run to completion before the worker exits.
func (p *sequencerPool) Close(speakerID uint32) {
	if q, ok := p.queues.LoadAndDelete(speakerID); ok {
		close(q)
	}
}
