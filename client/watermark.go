package client

import "sync"

// Watermark owns the highest message id this client has rendered. Both the
// push path and the poll path ask it the same question through Observe, so
// the decision "have I seen this id" is made in exactly one place instead of
// two loops racing on a shared counter.
type Watermark struct {
	mu   sync.Mutex
	last int64
}

func NewWatermark() *Watermark {
	return &Watermark{}
}

// Observe reports whether id is seen for the first time and, if so,
// advances the watermark. Re-applying the same id is a no-op, which is what
// makes a stale poll response safe: its duplicates simply observe ids
// already below the watermark.
func (w *Watermark) Observe(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if id <= w.last {
		return false
	}
	w.last = id
	return true
}

// Last returns the current watermark. The poller snapshots it at send time;
// by the time the response returns it may be stale, and that is fine.
func (w *Watermark) Last() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
