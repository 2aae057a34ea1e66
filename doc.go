// Package durabledict implements a dictionary that mirrors one keyspace of a
// durable backing store and serves reads from an in-memory snapshot. The
// store maintains a monotonically increasing version stamp per keyspace;
// the dictionary only re-fetches the full entry set when the stamp has moved
// past the one its snapshot was built from. Many readers share one cheap
// local view of data that is occasionally mutated by writers, possibly in
// other processes.
//
// Components:
//   - store.Store: persistence adapter binding a keyspace to a backend
//     (Redis hash, relational rows via bun, embedded bbolt, in-memory).
//     Every data write is paired indivisibly with a stamp bump.
//   - Dict: the public dictionary. Writes always go to the store first,
//     then patch the snapshot; reads go through the sync policy.
//   - counter.Counter: external atomic counter service for backends that
//     cannot hold the stamp next to the data.
//
// Sync policies:
//
//	autosync (default) - every read compares the store stamp to the
//	    snapshot's and refreshes when it has moved.
//	manual   - only an explicit Sync() refreshes; reads serve the
//	    snapshot as-is.
//
// Typical use:
//
//	st, _ := redistore.New(ctx, redistore.Config{Client: rdb, Keyspace: "flags"})
//	d, _ := durabledict.New(ctx, durabledict.Options{Keyspace: "flags", Store: st})
//	_ = d.Set(ctx, "feature", "on")
//	v, _ := d.Get(ctx, "feature")
package durabledict
