// Package counter abstracts the atomic counter service that backends use
// when the version stamp cannot live next to the data (the relational
// adapter delegates its stamp here). Use Local for in-process counters or
// Redis to share stamps across processes.
package counter

import "context"

// Counter is a named set of monotonically increasing integers.
// Implementations must be safe for concurrent use and must make Increment
// atomic across all holders of the same counter.
type Counter interface {
	// AddIfAbsent creates the counter with an initial value only when it
	// does not already exist.
	AddIfAbsent(ctx context.Context, name string, initial uint64) error
	// Increment atomically increments the counter and returns the new value.
	Increment(ctx context.Context, name string) (uint64, error)
	// Current returns the counter's value; missing counters read as 0.
	Current(ctx context.Context, name string) (uint64, error)
	// Close releases resources (no-op ok).
	Close(ctx context.Context) error
}
