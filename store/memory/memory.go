// Package memory implements the durabledict store in process memory.
// It is the reference implementation of the store contract: every mutation
// and its stamp bump happen under one lock. Nothing survives a restart, so
// use it for tests and for dictionaries whose lifetime matches the process.
package memory

import (
	"context"
	"sync"

	st "github.com/unkn0wn-root/durabledict/store"
)

type Memory struct {
	mu    sync.RWMutex
	data  map[string]string
	stamp uint64
}

var _ st.Store = (*Memory)(nil)

// New returns an empty store with the stamp seeded at 1.
func New() *Memory {
	return &Memory{data: make(map[string]string), stamp: 1}
}

func (m *Memory) Persist(_ context.Context, key, value string) (uint64, error) {
	m.mu.Lock()
	m.data[key] = value
	m.stamp++
	v := m.stamp
	m.mu.Unlock()
	return v, nil
}

func (m *Memory) Depersist(_ context.Context, key string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return 0, st.ErrKeyNotFound
	}
	delete(m.data, key)
	m.stamp++
	return m.stamp, nil
}

func (m *Memory) Persistents(context.Context) (map[string]string, error) {
	m.mu.RLock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	m.mu.RUnlock()
	return out, nil
}

func (m *Memory) LastUpdated(context.Context) (uint64, error) {
	m.mu.RLock()
	v := m.stamp
	m.mu.RUnlock()
	return v, nil
}

func (m *Memory) InsertIfAbsent(_ context.Context, key, def string) (string, bool, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return existing, false, 0, nil
	}
	m.data[key] = def
	m.stamp++
	return def, true, m.stamp, nil
}

func (m *Memory) Take(_ context.Context, key string) (string, bool, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", false, 0, nil
	}
	delete(m.data, key)
	m.stamp++
	return v, true, m.stamp, nil
}

func (m *Memory) Close(context.Context) error { return nil }
