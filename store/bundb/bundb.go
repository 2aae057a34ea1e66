// Package bundb implements the durabledict store on a relational table via
// uptrace/bun.
//
// The keyspace maps to one table with a designated key column and value
// column; the version stamp is delegated to an external counter.Counter
// because a relational row set has no cheap place for a cross-row atomic
// integer. Row mutations run inside bun transactions; the counter bump
// follows the data write and only happens when the write call succeeded.
package bundb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/unkn0wn-root/durabledict/counter"
	st "github.com/unkn0wn-root/durabledict/store"
)

var (
	ErrNilDB      = errors.New("bundb store: nil db")
	ErrNilCounter = errors.New("bundb store: nil counter")
	ErrNoKeyspace = errors.New("bundb store: keyspace is required")
)

const stampSuffix = "last_updated"

type Bun struct {
	db          *bun.DB
	keyspace    string
	table       string
	keyCol      string
	valCol      string
	counter     counter.Counter
	counterName string
	closeDB     bool

	watermark st.Watermark
}

var _ st.Store = (*Bun)(nil)

type Config struct {
	DB       *bun.DB
	Keyspace string
	Counter  counter.Counter // external atomic counter holding the stamp

	Table       string // default "dict_entries"
	KeyColumn   string // default "key"
	ValueColumn string // default "value"
	CloseDB     bool   // set true only if this store exclusively owns the DB
}

// New binds a store to one table and registers the keyspace's counter with
// an initial value of 1 (add-if-absent, so concurrent constructors agree).
func New(ctx context.Context, cfg Config) (*Bun, error) {
	if cfg.DB == nil {
		return nil, ErrNilDB
	}
	if cfg.Counter == nil {
		return nil, ErrNilCounter
	}
	if cfg.Keyspace == "" {
		return nil, ErrNoKeyspace
	}

	s := &Bun{
		db:          cfg.DB,
		keyspace:    cfg.Keyspace,
		counter:     cfg.Counter,
		counterName: cfg.Keyspace + stampSuffix,
		closeDB:     cfg.CloseDB,
	}
	s.table = cfg.Table
	if s.table == "" {
		s.table = "dict_entries"
	}
	s.keyCol = cfg.KeyColumn
	if s.keyCol == "" {
		s.keyCol = "key"
	}
	s.valCol = cfg.ValueColumn
	if s.valCol == "" {
		s.valCol = "value"
	}

	if err := s.counter.AddIfAbsent(ctx, s.counterName, 1); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureTable creates the backing table when it does not exist. Both columns
// are text; the key column is the primary key.
func (s *Bun) EnsureTable(ctx context.Context) error {
	_, err := s.db.NewRaw(
		"CREATE TABLE IF NOT EXISTS ? (? VARCHAR NOT NULL PRIMARY KEY, ? VARCHAR NOT NULL)",
		bun.Ident(s.table), bun.Ident(s.keyCol), bun.Ident(s.valCol),
	).Exec(ctx)
	return err
}

// Persist is find-or-create followed by an update of an existing row. The
// stamp bumps on every successful call, whether or not the stored value
// changed ("bump on every successful write call", applied uniformly).
func (s *Bun) Persist(ctx context.Context, key, value string) (uint64, error) {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := map[string]interface{}{s.keyCol: key, s.valCol: value}
		res, err := tx.NewInsert().
			Model(&row).
			TableExpr("?", bun.Ident(s.table)).
			On("CONFLICT (?) DO NOTHING", bun.Ident(s.keyCol)).
			Exec(ctx)
		if err != nil {
			return err
		}
		created, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if created > 0 {
			return nil
		}
		_, err = tx.NewUpdate().
			Table(s.table).
			Set("? = ?", bun.Ident(s.valCol), value).
			Where("? = ?", bun.Ident(s.keyCol), key).
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return s.bump(ctx)
}

func (s *Bun) Depersist(ctx context.Context, key string) (uint64, error) {
	res, err := s.db.NewDelete().
		Table(s.table).
		Where("? = ?", bun.Ident(s.keyCol), key).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, st.ErrKeyNotFound
	}
	return s.bump(ctx)
}

func (s *Bun) Persistents(ctx context.Context) (map[string]string, error) {
	var keys, values []string
	err := s.db.NewSelect().
		Table(s.table).
		Column(s.keyCol, s.valCol).
		Scan(ctx, &keys, &values)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for i, k := range keys {
		out[k] = values[i]
	}
	return out, nil
}

func (s *Bun) LastUpdated(ctx context.Context) (uint64, error) {
	v, err := s.counter.Current(ctx, s.counterName)
	if err != nil {
		return 0, err
	}
	return s.watermark.Observe(v), nil
}

func (s *Bun) InsertIfAbsent(ctx context.Context, key, def string) (string, bool, uint64, error) {
	var (
		value    string
		inserted bool
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := map[string]interface{}{s.keyCol: key, s.valCol: def}
		res, err := tx.NewInsert().
			Model(&row).
			TableExpr("?", bun.Ident(s.table)).
			On("CONFLICT (?) DO NOTHING", bun.Ident(s.keyCol)).
			Exec(ctx)
		if err != nil {
			return err
		}
		created, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if created > 0 {
			value, inserted = def, true
			return nil
		}
		return tx.NewSelect().
			Table(s.table).
			Column(s.valCol).
			Where("? = ?", bun.Ident(s.keyCol), key).
			Scan(ctx, &value)
	})
	if err != nil {
		return "", false, 0, err
	}
	if !inserted {
		return value, false, 0, nil
	}
	stamp, err := s.bump(ctx)
	if err != nil {
		return "", false, 0, err
	}
	return value, true, stamp, nil
}

func (s *Bun) Take(ctx context.Context, key string) (string, bool, uint64, error) {
	var (
		value string
		took  bool
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Table(s.table).
			Column(s.valCol).
			Where("? = ?", bun.Ident(s.keyCol), key).
			Scan(ctx, &value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Table(s.table).
			Where("? = ?", bun.Ident(s.keyCol), key).
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		took = n > 0
		return nil
	})
	if err != nil {
		return "", false, 0, err
	}
	if !took {
		return "", false, 0, nil
	}
	stamp, err := s.bump(ctx)
	if err != nil {
		return "", false, 0, err
	}
	return value, true, stamp, nil
}

// Close releases the underlying DB only when this store owns it.
func (s *Bun) Close(context.Context) error {
	if s.closeDB {
		return s.db.Close()
	}
	return nil
}

func (s *Bun) bump(ctx context.Context) (uint64, error) {
	stamp, err := s.counter.Increment(ctx, s.counterName)
	if err != nil {
		return 0, err
	}
	return s.watermark.Observe(stamp), nil
}
