package durabledict

import (
	"fmt"

	st "github.com/unkn0wn-root/durabledict/store"
)

// Re-exported store sentinels so callers only need errors.Is against this
// package.
var (
	ErrKeyNotFound          = st.ErrKeyNotFound
	ErrUnsupportedOperation = st.ErrUnsupportedOperation
)

// KeyError reports which key was missing from which keyspace.
// errors.Is(err, ErrKeyNotFound) matches it.
type KeyError struct {
	Keyspace string
	Key      string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("durabledict: key %q not found in keyspace %q", e.Key, e.Keyspace)
}

func (e *KeyError) Unwrap() error { return ErrKeyNotFound }

// StoreError wraps a backend failure with the operation that hit it. The
// underlying adapter error is preserved unchanged; no retry happens at this
// layer.
type StoreError struct {
	Keyspace string
	Op       string // "persist", "depersist", "persistents", "last_updated", "insert_if_absent", "take"
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("durabledict: %s on keyspace %q failed: %v", e.Op, e.Keyspace, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
