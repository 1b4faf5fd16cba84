// internal/device/guard.go
package device

import (
	"sync/atomic"
	"time"
)

// DefaultProtectionWindow is how long a written target outranks the read-back value.
const DefaultProtectionWindow = 2 * time.Second

// WriteObserver is told about calibration target writes.
// MarkWrite is called as the write is issued, Settle once its outcome is known.
type WriteObserver interface {
	MarkWrite(value float64)
	Settle(err error)
}

// guardState is immutable once published.
type guardState struct {
	writing  bool
	value    float64
	hasValue bool
	at       time.Time
}

// WriteGuard publishes the last written calibration target instead of a
// read that may still echo the pre-write value.
// All state sits behind one atomic pointer so the poll path never blocks.
type WriteGuard struct {
	state  atomic.Pointer[guardState]
	window time.Duration
	now    func() time.Time
}

// NewWriteGuard creates a guard. A window <= 0 uses DefaultProtectionWindow.
func NewWriteGuard(window time.Duration) *WriteGuard {
	if window <= 0 {
		window = DefaultProtectionWindow
	}
	g := &WriteGuard{window: window, now: time.Now}
	g.state.Store(&guardState{})
	return g
}

// Window returns the protection window.
func (g *WriteGuard) Window() time.Duration { return g.window }

// MarkWrite records value as being written now.
func (g *WriteGuard) MarkWrite(value float64) {
	g.state.Store(&guardState{
		writing:  true,
		value:    value,
		hasValue: true,
		at:       g.now(),
	})
}

// Settle ends the in-progress write. On success the value stays protected
// until the window runs out; on failure the guard is cleared so reads are
// trusted again at once.
func (g *WriteGuard) Settle(err error) {
	if err != nil {
		g.state.Store(&guardState{})
		return
	}
	for {
		cur := g.state.Load()
		if !cur.writing {
			return
		}
		next := *cur
		next.writing = false
		if g.state.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Reconcile returns the value to publish for a freshly read target and
// whether the written value was substituted.
func (g *WriteGuard) Reconcile(read float64) (float64, bool) {
	s := g.state.Load()
	if s.writing || (s.hasValue && g.now().Sub(s.at) < g.window) {
		return s.value, true
	}
	return read, false
}

// LastWrite returns the last written value and when it was issued.
func (g *WriteGuard) LastWrite() (float64, time.Time, bool) {
	s := g.state.Load()
	return s.value, s.at, s.hasValue
}
