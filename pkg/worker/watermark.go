package worker

import (
	"sync"

	"github.com/jzx17/gopool/pkg/types"
)

// watermark tracks completion of sequence-numbered submissions. low is the
// smallest sequence not yet completed: every sequence below it is done.
type watermark struct {
	mu      sync.Mutex
	next    uint64
	low     uint64
	done    map[uint64]struct{} // completed sequences above low
	waiters []watermarkWaiter
}

type watermarkWaiter struct {
	target uint64
	ready  chan struct{}
}

func newWatermark() *watermark {
	return &watermark{done: make(map[uint64]struct{})}
}

// reserve hands out the next sequence number
func (m *watermark) reserve() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	seq := m.next
	m.next++
	return seq
}

// complete marks seq finished, advances low over the completed prefix and
// releases the waiters it now covers. Each sequence is completed once.
func (m *watermark) complete(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.low {
		m.done[seq] = struct{}{}
		return
	}
	m.low++
	for {
		if _, ok := m.done[m.low]; !ok {
			break
		}
		delete(m.done, m.low)
		m.low++
	}

	kept := m.waiters[:0]
	for _, w := range m.waiters {
		if w.target <= m.low {
			close(w.ready)
		} else {
			kept = append(kept, w)
		}
	}
	clear(m.waiters[len(kept):])
	m.waiters = kept
}

// snapshot returns a channel closed once every sequence reserved before the
// call has completed
func (m *watermark) snapshot() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ready := make(chan struct{})
	if m.low >= m.next {
		close(ready)
		return ready
	}
	m.waiters = append(m.waiters, watermarkWaiter{target: m.next, ready: ready})
	return ready
}

// sequencedTask carries the watermark sequence of a submitted task
type sequencedTask struct {
	types.Task
	seq uint64
}
