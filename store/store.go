// Package store defines the persistence adapter contract used by durabledict.
//
// A Store binds one keyspace in a durable backend to dictionary-shaped
// operations, and maintains that keyspace's version stamp: an unsigned
// 64-bit counter that starts at 1 and moves forward on every successful
// write. The stamp and the data mutation it describes are one indivisible
// unit — no reader may observe an incremented stamp without the
// corresponding data change, and no data change may land without its bump.
// A reader that sees stamp V is guaranteed to see every write that
// completed before the stamp reached V.
//
// Methods that bump the stamp return the post-bump value so the caller can
// advance its own view without re-reading the backend. Operations that turn
// out to be no-ops (deleting a missing key, inserting over an existing one,
// taking a missing key) must NOT bump and must return stamp 0.
package store

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound reports a read, delete or take of a key that does not
	// exist in the keyspace.
	ErrKeyNotFound = errors.New("durabledict: key not found")

	// ErrUnsupportedOperation reports an operation the dictionary refuses
	// by design (bulk update).
	ErrUnsupportedOperation = errors.New("durabledict: operation not supported")
)

// Store is a durable keyspace with an atomically maintained version stamp.
// Implementations must be safe for concurrent use. Values are opaque strings;
// callers owning richer types serialize before Persist and deserialize after
// reads (see the codec package).
type Store interface {
	// Persist durably stores value under key and bumps the version stamp,
	// both as one unit. Returns the stamp after the bump.
	Persist(ctx context.Context, key, value string) (uint64, error)

	// Depersist removes the entry for key and bumps the stamp as one unit.
	// Returns ErrKeyNotFound (and does not bump) when the key is absent.
	Depersist(ctx context.Context, key string) (uint64, error)

	// Persistents returns the full live entry set of the keyspace.
	Persistents(ctx context.Context) (map[string]string, error)

	// LastUpdated returns the current version stamp. It never reports a
	// value older than one this instance has already observed.
	LastUpdated(ctx context.Context) (uint64, error)

	// InsertIfAbsent stores def under key only when no entry exists.
	// Returns the resulting value (def when inserted, the pre-existing
	// value otherwise), whether an insertion occurred, and the post-bump
	// stamp (0 when nothing was inserted — no bump happens then).
	InsertIfAbsent(ctx context.Context, key, def string) (value string, inserted bool, stamp uint64, err error)

	// Take returns and removes the value under key as one unit. took is
	// false (stamp 0, no bump) when the key is absent.
	Take(ctx context.Context, key string) (value string, took bool, stamp uint64, err error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
