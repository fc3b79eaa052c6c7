package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by Advance. Callbacks run
// synchronously inside Advance, in due-time order, on the caller's goroutine.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	owner   *Manual
	due     time.Duration
	seq     uint64
	fn      func()
	stopped bool
}

// NewManual returns a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc arms fn to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{owner: m, due: m.now + d, seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	t.owner.removeLocked(t)
	return true
}

func (m *Manual) removeLocked(t *manualTimer) {
	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by d, running every callback that becomes
// due, including ones armed by callbacks during this call.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		next.stopped = true
		m.removeLocked(next)
		m.mu.Unlock()

		next.fn()
	}
}

// Flush runs every callback due at the current time.
func (m *Manual) Flush() {
	m.Advance(0)
}

func (m *Manual) nextDueLocked(target time.Duration) *manualTimer {
	if len(m.pending) == 0 {
		return nil
	}
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due != m.pending[j].due {
			return m.pending[i].due < m.pending[j].due
		}
		return m.pending[i].seq < m.pending[j].seq
	})
	if m.pending[0].due > target {
		return nil
	}
	return m.pending[0]
}

// Now returns the simulated time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of armed callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
