package durabledict

import (
	"context"
	"errors"
	"fmt"
	"sync"

	st "github.com/unkn0wn-root/durabledict/store"
)

type dict struct {
	keyspace string
	store    st.Store
	log      Logger
	hooks    Hooks
	manual   bool

	// snapshot of the keyspace plus the stamp it was built from.
	// observed == 0 means never synced; stamps start at 1.
	mu       sync.RWMutex
	data     map[string]string
	observed uint64
}

func newDict(ctx context.Context, opts Options) (*dict, error) {
	if opts.Keyspace == "" {
		return nil, fmt.Errorf("durabledict: keyspace is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("durabledict: store is required")
	}

	d := &dict{
		keyspace: opts.Keyspace,
		store:    opts.Store,
		manual:   opts.ManualSync,
		data:     make(map[string]string),
	}
	d.log = coalesce[Logger](opts.Logger, NopLogger{})
	d.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})

	// Populate the snapshot up front so the instance starts Fresh.
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refreshLocked(ctx, true); err != nil {
		return nil, err
	}
	return d, nil
}

// refreshLocked runs the compare-and-refresh cycle. The stamp is read before
// the enumeration: a writer racing in between can only make the snapshot
// look stale (observed < actual), never falsely fresh.
func (d *dict) refreshLocked(ctx context.Context, force bool) error {
	remote, err := d.store.LastUpdated(ctx)
	if err != nil {
		d.hooks.RefreshError(d.keyspace, err)
		d.log.Warn("stamp read failed", Fields{"keyspace": d.keyspace, "err": err})
		return &StoreError{Keyspace: d.keyspace, Op: "last_updated", Err: err}
	}
	if !force && d.observed != 0 && remote <= d.observed {
		return nil
	}

	data, err := d.store.Persistents(ctx)
	if err != nil {
		d.hooks.RefreshError(d.keyspace, err)
		d.log.Warn("enumeration failed", Fields{"keyspace": d.keyspace, "err": err})
		return &StoreError{Keyspace: d.keyspace, Op: "persistents", Err: err}
	}
	if data == nil {
		data = make(map[string]string)
	}

	d.data = data
	if remote > d.observed {
		d.observed = remote
	}
	d.hooks.SnapshotRefreshed(d.keyspace, d.observed, len(d.data))
	d.log.Debug("snapshot refreshed", Fields{
		"keyspace": d.keyspace,
		"stamp":    d.observed,
		"entries":  len(d.data),
	})
	return nil
}

// withSnapshot serves fn from the snapshot under the configured sync policy.
// Autosync takes the write lock because the check may rebuild the snapshot;
// manual mode only needs the read lock.
func (d *dict) withSnapshot(ctx context.Context, fn func()) error {
	if d.manual {
		d.mu.RLock()
		fn()
		d.mu.RUnlock()
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refreshLocked(ctx, false); err != nil {
		return err
	}
	fn()
	return nil
}

// advanceLocked moves the observed stamp forward after a write this instance
// performed. stamp == 0 means the store did not bump (no-op write path).
func (d *dict) advanceLocked(stamp uint64) {
	if stamp > d.observed {
		before := d.observed
		d.observed = stamp
		d.hooks.StampAdvanced(d.keyspace, before, stamp)
	}
}

func (d *dict) Get(ctx context.Context, key string) (string, error) {
	var (
		v  string
		ok bool
	)
	if err := d.withSnapshot(ctx, func() { v, ok = d.data[key] }); err != nil {
		return "", err
	}
	if !ok {
		return "", &KeyError{Keyspace: d.keyspace, Key: key}
	}
	return v, nil
}

func (d *dict) Contains(ctx context.Context, key string) (bool, error) {
	var ok bool
	err := d.withSnapshot(ctx, func() { _, ok = d.data[key] })
	return ok, err
}

func (d *dict) Len(ctx context.Context) (int, error) {
	var n int
	err := d.withSnapshot(ctx, func() { n = len(d.data) })
	return n, err
}

func (d *dict) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := d.withSnapshot(ctx, func() {
		keys = make([]string, 0, len(d.data))
		for k := range d.data {
			keys = append(keys, k)
		}
	})
	return keys, err
}

func (d *dict) Items(ctx context.Context) (map[string]string, error) {
	var items map[string]string
	err := d.withSnapshot(ctx, func() {
		items = make(map[string]string, len(d.data))
		for k, v := range d.data {
			items[k] = v
		}
	})
	return items, err
}

func (d *dict) LastUpdated(ctx context.Context) (uint64, error) {
	var stamp uint64
	err := d.withSnapshot(ctx, func() { stamp = d.observed })
	return stamp, err
}

func (d *dict) Set(ctx context.Context, key, value string) error {
	stamp, err := d.store.Persist(ctx, key, value)
	if err != nil {
		d.hooks.StoreError(d.keyspace, "persist", err)
		return &StoreError{Keyspace: d.keyspace, Op: "persist", Err: err}
	}
	// The store already holds the write; patch the one key locally instead
	// of re-fetching everything we just wrote.
	d.mu.Lock()
	d.data[key] = value
	d.advanceLocked(stamp)
	d.mu.Unlock()
	return nil
}

func (d *dict) Delete(ctx context.Context, key string) error {
	stamp, err := d.store.Depersist(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		// Authoritative miss; drop any stale local copy.
		d.mu.Lock()
		delete(d.data, key)
		d.mu.Unlock()
		return &KeyError{Keyspace: d.keyspace, Key: key}
	}
	if err != nil {
		d.hooks.StoreError(d.keyspace, "depersist", err)
		return &StoreError{Keyspace: d.keyspace, Op: "depersist", Err: err}
	}
	d.mu.Lock()
	delete(d.data, key)
	d.advanceLocked(stamp)
	d.mu.Unlock()
	return nil
}

// SetDefault always asks the store, never the snapshot: the insert must be
// conditioned on the store's absence check so two racing instances cannot
// both think they inserted.
func (d *dict) SetDefault(ctx context.Context, key, def string) (string, error) {
	v, inserted, stamp, err := d.store.InsertIfAbsent(ctx, key, def)
	if err != nil {
		d.hooks.StoreError(d.keyspace, "insert_if_absent", err)
		return "", &StoreError{Keyspace: d.keyspace, Op: "insert_if_absent", Err: err}
	}
	d.mu.Lock()
	d.data[key] = v
	if inserted {
		d.advanceLocked(stamp)
	}
	d.mu.Unlock()
	return v, nil
}

func (d *dict) Pop(ctx context.Context, key string) (string, error) {
	v, took, err := d.take(ctx, key)
	if err != nil {
		return "", err
	}
	if !took {
		return "", &KeyError{Keyspace: d.keyspace, Key: key}
	}
	return v, nil
}

func (d *dict) PopDefault(ctx context.Context, key, def string) (string, error) {
	v, took, err := d.take(ctx, key)
	if err != nil {
		return "", err
	}
	if !took {
		return def, nil
	}
	return v, nil
}

func (d *dict) take(ctx context.Context, key string) (string, bool, error) {
	v, took, stamp, err := d.store.Take(ctx, key)
	if err != nil {
		d.hooks.StoreError(d.keyspace, "take", err)
		return "", false, &StoreError{Keyspace: d.keyspace, Op: "take", Err: err}
	}
	d.mu.Lock()
	delete(d.data, key)
	if took {
		d.advanceLocked(stamp)
	}
	d.mu.Unlock()
	return v, took, nil
}

func (d *dict) Update(context.Context, map[string]string) error {
	// Bulk update cannot keep the value+stamp pairing per entry without a
	// cross-entry transaction every backend would have to support.
	return ErrUnsupportedOperation
}

func (d *dict) Sync(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refreshLocked(ctx, false)
}

func (d *dict) Close(ctx context.Context) error {
	if d.store != nil {
		return d.store.Close(ctx)
	}
	return nil
}
