// Package bolt implements the durabledict store on an embedded bbolt file.
//
// Entries live in a bucket named after the keyspace; the version stamp is an
// 8-byte big-endian value in a sibling meta bucket. Every write runs inside
// a single bbolt read-write transaction, so the data mutation and the stamp
// bump commit or roll back together — the strongest available realization
// of the value+stamp atomicity contract.
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	bbolt "go.etcd.io/bbolt"

	st "github.com/unkn0wn-root/durabledict/store"
)

var (
	ErrNilDB      = errors.New("bolt store: nil db")
	ErrNoKeyspace = errors.New("bolt store: keyspace is required")
)

var stampKey = []byte("last_updated")

type Bolt struct {
	db      *bbolt.DB
	entries []byte // bucket holding the keyspace's entries
	meta    []byte // bucket holding the stamp
	ownsDB  bool

	watermark st.Watermark
}

var _ st.Store = (*Bolt)(nil)

// Open opens (or creates) a bbolt file at path and binds a store to
// keyspace. The returned store owns the DB and closes it on Close.
func Open(path, keyspace string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	s, err := New(db, keyspace)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New binds a store to keyspace inside an existing DB, so several keyspaces
// can share one file. The caller keeps ownership of db.
func New(db *bbolt.DB, keyspace string) (*Bolt, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if keyspace == "" {
		return nil, ErrNoKeyspace
	}
	s := &Bolt{
		db:      db,
		entries: []byte(keyspace),
		meta:    []byte(keyspace + ".meta"),
	}
	// Create buckets and seed the stamp at 1 for a never-seen keyspace.
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(s.entries); err != nil {
			return err
		}
		mb, err := tx.CreateBucketIfNotExists(s.meta)
		if err != nil {
			return err
		}
		if mb.Get(stampKey) == nil {
			return putStamp(mb, 1)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Bolt) Persist(_ context.Context, key, value string) (uint64, error) {
	var stamp uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(s.entries).Put([]byte(key), []byte(value)); err != nil {
			return err
		}
		var err error
		stamp, err = bumpStamp(tx.Bucket(s.meta))
		return err
	})
	if err != nil {
		return 0, err
	}
	return s.watermark.Observe(stamp), nil
}

func (s *Bolt) Depersist(_ context.Context, key string) (uint64, error) {
	var stamp uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		eb := tx.Bucket(s.entries)
		if eb.Get([]byte(key)) == nil {
			return st.ErrKeyNotFound
		}
		if err := eb.Delete([]byte(key)); err != nil {
			return err
		}
		var err error
		stamp, err = bumpStamp(tx.Bucket(s.meta))
		return err
	})
	if err != nil {
		return 0, err
	}
	return s.watermark.Observe(stamp), nil
}

func (s *Bolt) Persistents(_ context.Context) (map[string]string, error) {
	out := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.entries).ForEach(func(k, v []byte) error {
			out[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Bolt) LastUpdated(context.Context) (uint64, error) {
	var stamp uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		stamp = readStamp(tx.Bucket(s.meta))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return s.watermark.Observe(stamp), nil
}

func (s *Bolt) InsertIfAbsent(_ context.Context, key, def string) (string, bool, uint64, error) {
	var (
		value    string
		inserted bool
		stamp    uint64
	)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		eb := tx.Bucket(s.entries)
		if existing := eb.Get([]byte(key)); existing != nil {
			value = string(existing)
			return nil
		}
		if err := eb.Put([]byte(key), []byte(def)); err != nil {
			return err
		}
		var err error
		stamp, err = bumpStamp(tx.Bucket(s.meta))
		if err != nil {
			return err
		}
		value, inserted = def, true
		return nil
	})
	if err != nil {
		return "", false, 0, err
	}
	if !inserted {
		return value, false, 0, nil
	}
	return value, true, s.watermark.Observe(stamp), nil
}

func (s *Bolt) Take(_ context.Context, key string) (string, bool, uint64, error) {
	var (
		value string
		took  bool
		stamp uint64
	)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		eb := tx.Bucket(s.entries)
		v := eb.Get([]byte(key))
		if v == nil {
			return nil
		}
		value = string(v) // copy before the tx ends
		if err := eb.Delete([]byte(key)); err != nil {
			return err
		}
		var err error
		stamp, err = bumpStamp(tx.Bucket(s.meta))
		if err != nil {
			return err
		}
		took = true
		return nil
	})
	if err != nil {
		return "", false, 0, err
	}
	if !took {
		return "", false, 0, nil
	}
	return value, true, s.watermark.Observe(stamp), nil
}

// Close closes the underlying DB when this store opened it (see Open).
func (s *Bolt) Close(context.Context) error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func readStamp(mb *bbolt.Bucket) uint64 {
	v := mb.Get(stampKey)
	if len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

func bumpStamp(mb *bbolt.Bucket) (uint64, error) {
	next := readStamp(mb) + 1
	return next, putStamp(mb, next)
}

func putStamp(mb *bbolt.Bucket, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return mb.Put(stampKey, buf[:])
}
