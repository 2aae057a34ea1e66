package store

import "sync/atomic"

// Watermark tracks the highest version stamp an adapter instance has seen.
// LastUpdated implementations fold every stamp read off the wire through
// Observe so they never report a value older than one already returned
// (e.g. when a lagging replica serves the read). The zero value is ready
// to use.
type Watermark struct {
	v atomic.Uint64
}

// Observe folds stamp into the watermark and returns the max of the two.
func (w *Watermark) Observe(stamp uint64) uint64 {
	for {
		cur := w.v.Load()
		if stamp <= cur {
			return cur
		}
		if w.v.CompareAndSwap(cur, stamp) {
			return stamp
		}
	}
}

// Load returns the current watermark.
func (w *Watermark) Load() uint64 { return w.v.Load() }
