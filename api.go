package durabledict

import (
	"context"

	st "github.com/unkn0wn-root/durabledict/store"
)

// Dict is the versioned read-through dictionary. One instance is bound to
// one keyspace in one Store for its whole lifetime. Values are strings;
// wrap a Dict in Typed for richer value types.
//
// Methods are safe for concurrent use from multiple goroutines; the local
// snapshot is guarded internally. Cross-process coordination happens solely
// through the store's version stamp.
type Dict interface {
	// Get returns the value under key. Fails with ErrKeyNotFound when the
	// key is absent after the sync policy ran.
	Get(ctx context.Context, key string) (string, error)

	// Set persists value under key, then patches the local snapshot.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Fails with ErrKeyNotFound when the key did not
	// exist in the store.
	Delete(ctx context.Context, key string) error

	// Contains reports whether key exists.
	Contains(ctx context.Context, key string) (bool, error)

	// Len returns the number of entries.
	Len(ctx context.Context) (int, error)

	// Keys returns all keys, unordered.
	Keys(ctx context.Context) ([]string, error)

	// Items returns a copy of all entries.
	Items(ctx context.Context) (map[string]string, error)

	// SetDefault inserts def under key only if the key is absent, and
	// returns the value now stored. The absence check is the store's, not
	// the snapshot's, so racing writers cannot double-insert.
	SetDefault(ctx context.Context, key, def string) (string, error)

	// Pop removes key and returns its value. Fails with ErrKeyNotFound
	// when the key is absent.
	Pop(ctx context.Context, key string) (string, error)

	// PopDefault is Pop, but an absent key returns def with no side
	// effects (the stamp does not move).
	PopDefault(ctx context.Context, key, def string) (string, error)

	// Update is unsupported by design: bulk update cannot cheaply keep
	// the per-entry value+stamp pairing. Always ErrUnsupportedOperation.
	Update(ctx context.Context, entries map[string]string) error

	// Sync forces the compare-and-refresh check regardless of policy.
	Sync(ctx context.Context) error

	// LastUpdated returns the locally known version stamp after running
	// the read-side sync policy.
	LastUpdated(ctx context.Context) (uint64, error)

	// Close releases the underlying store.
	Close(ctx context.Context) error
}

// Options configure a Dict. Keyspace and Store are required.
type Options struct {
	Keyspace string   // logical namespace, must match the store's binding
	Store    st.Store // persistence adapter

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	// ManualSync disables read-triggered refreshes; only Sync() refreshes
	// the snapshot. Default false (autosync).
	ManualSync bool
}

// New builds a Dict and performs the initial full sync, so a freshly
// constructed instance already reflects the store.
func New(ctx context.Context, opts Options) (Dict, error) {
	return newDict(ctx, opts)
}
