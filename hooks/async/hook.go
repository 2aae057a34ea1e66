// Package asynchook decouples hook delivery from the dictionary's hot path.
// Events are queued to a bounded channel and delivered by worker goroutines;
// when the queue is full the event is dropped rather than blocking a caller
// that holds the snapshot lock.
//
// usage:
//
//	raw := myHooks{} // your durabledict.Hooks implementation
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	d, _ := durabledict.New(ctx, durabledict.Options{
//	    Keyspace: "flags",
//	    Store:    store,
//	    Hooks:    hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/durabledict"
)

type Hooks struct {
	inner durabledict.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ durabledict.Hooks = (*Hooks)(nil)

func New(inner durabledict.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) SnapshotRefreshed(ks string, stamp uint64, entries int) {
	h.try(func() { h.inner.SnapshotRefreshed(ks, stamp, entries) })
}

func (h *Hooks) StampAdvanced(ks string, before, after uint64) {
	h.try(func() { h.inner.StampAdvanced(ks, before, after) })
}

func (h *Hooks) RefreshError(ks string, err error) {
	h.try(func() { h.inner.RefreshError(ks, err) })
}

func (h *Hooks) StoreError(ks, op string, err error) {
	h.try(func() { h.inner.StoreError(ks, op, err) })
}
