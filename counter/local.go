package counter

import (
	"context"
	"sync"
)

// Local keeps counters in-process. Suitable for tests and single-process
// deployments; stamps maintained here are invisible to other processes.
type Local struct {
	mu     sync.RWMutex
	counts map[string]uint64
}

var _ Counter = (*Local)(nil)

func NewLocal() *Local {
	return &Local{counts: make(map[string]uint64)}
}

func (l *Local) AddIfAbsent(_ context.Context, name string, initial uint64) error {
	l.mu.Lock()
	if _, ok := l.counts[name]; !ok {
		l.counts[name] = initial
	}
	l.mu.Unlock()
	return nil
}

func (l *Local) Increment(_ context.Context, name string) (uint64, error) {
	l.mu.Lock()
	l.counts[name]++
	v := l.counts[name]
	l.mu.Unlock()
	return v, nil
}

func (l *Local) Current(_ context.Context, name string) (uint64, error) {
	l.mu.RLock()
	v := l.counts[name] // zero value (0) if missing
	l.mu.RUnlock()
	return v, nil
}

func (l *Local) Close(context.Context) error { return nil }
