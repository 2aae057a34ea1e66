package durabledict

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking: the dictionary calls them
// while holding its snapshot lock. Wrap with hooks/async to decouple.
type Hooks interface {
	// The snapshot was rebuilt from a full store enumeration.
	SnapshotRefreshed(keyspace string, stamp uint64, entries int)

	// A write this instance performed moved the observed stamp forward.
	StampAdvanced(keyspace string, before, after uint64)

	// A compare-and-refresh cycle failed (stamp read or enumeration).
	RefreshError(keyspace string, err error)

	// A store write operation failed.
	// op ∈ {"persist", "depersist", "insert_if_absent", "take"}
	StoreError(keyspace, op string, err error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) SnapshotRefreshed(string, uint64, int) {}
func (NopHooks) StampAdvanced(string, uint64, uint64)  {}
func (NopHooks) RefreshError(string, error)            {}
func (NopHooks) StoreError(string, string, error)      {}
