// Package redis implements the durabledict store on one Redis hash.
//
// Entries are fields of the hash named after the keyspace; the version
// stamp is a separate string key, keyspace + "last_updated". Unconditional
// writes pair the field mutation with an INCR of the stamp in one MULTI/EXEC
// unit. Conditional writes (delete, insert-if-absent, take) run as Lua
// scripts so the stamp only moves when the data actually changed.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	st "github.com/unkn0wn-root/durabledict/store"
)

var (
	ErrNilClient   = errors.New("redis store: nil client")
	ErrNoKeyspace  = errors.New("redis store: keyspace is required")
	errScriptReply = errors.New("redis store: unexpected script reply")
)

// stampSuffix is appended directly to the keyspace, no separator. Kept
// byte-compatible with stores populated by the original modeldict clients.
const stampSuffix = "last_updated"

// depersistScript removes a hash field and bumps the stamp only when the
// field existed. Reply: {removed(0|1), stamp}.
var depersistScript = goredis.NewScript(`
if redis.call('HDEL', KEYS[1], ARGV[1]) == 0 then
  return {0, 0}
end
return {1, redis.call('INCR', KEYS[2])}
`)

// insertScript inserts a field only if absent, bumping the stamp only on a
// real insert. Reply: {value, inserted(0|1), stamp}.
var insertScript = goredis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 1 then
  return {ARGV[2], 1, redis.call('INCR', KEYS[2])}
end
return {redis.call('HGET', KEYS[1], ARGV[1]), 0, 0}
`)

// takeScript reads and deletes a field as one unit, bumping only when the
// field existed. Reply: {value, took(0|1), stamp}.
var takeScript = goredis.NewScript(`
local v = redis.call('HGET', KEYS[1], ARGV[1])
if v == false then
  return {'', 0, 0}
end
redis.call('HDEL', KEYS[1], ARGV[1])
return {v, 1, redis.call('INCR', KEYS[2])}
`)

type Redis struct {
	rdb         goredis.UniversalClient
	keyspace    string
	stampKey    string
	closeClient bool

	// highest stamp this instance has observed; LastUpdated never reports
	// below it even if a replica serves a lagging read.
	watermark st.Watermark
}

var _ st.Store = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Keyspace    string
	CloseClient bool // set true only if this store exclusively owns the client
}

// New binds a store to cfg.Keyspace and initializes the version stamp to 1
// when the keyspace has never been seen (SETNX, so concurrent constructors
// agree).
func New(ctx context.Context, cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if cfg.Keyspace == "" {
		return nil, ErrNoKeyspace
	}
	s := &Redis{
		rdb:         cfg.Client,
		keyspace:    cfg.Keyspace,
		stampKey:    cfg.Keyspace + stampSuffix,
		closeClient: cfg.CloseClient,
	}
	if err := s.rdb.SetNX(ctx, s.stampKey, 1, 0).Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Redis) Persist(ctx context.Context, key, value string) (uint64, error) {
	var incr *goredis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.Incr(ctx, s.stampKey)
		p.HSet(ctx, s.keyspace, key, value)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return s.observe(uint64(incr.Val())), nil
}

func (s *Redis) Depersist(ctx context.Context, key string) (uint64, error) {
	res, err := depersistScript.Run(ctx, s.rdb, []string{s.keyspace, s.stampKey}, key).Result()
	if err != nil {
		return 0, err
	}
	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, errScriptReply
	}
	removed, err := replyUint(reply[0])
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, st.ErrKeyNotFound
	}
	stamp, err := replyUint(reply[1])
	if err != nil {
		return 0, err
	}
	return s.observe(stamp), nil
}

func (s *Redis) Persistents(ctx context.Context) (map[string]string, error) {
	return s.rdb.HGetAll(ctx, s.keyspace).Result()
}

func (s *Redis) LastUpdated(ctx context.Context) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.stampKey).Result()
	if err == goredis.Nil {
		// keyspace never initialized; report the watermark, not a rollback
		return s.watermark.Load(), nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis store: stamp parse: %w", err)
	}
	return s.observe(u), nil
}

func (s *Redis) InsertIfAbsent(ctx context.Context, key, def string) (string, bool, uint64, error) {
	res, err := insertScript.Run(ctx, s.rdb, []string{s.keyspace, s.stampKey}, key, def).Result()
	if err != nil {
		return "", false, 0, err
	}
	reply, ok := res.([]interface{})
	if !ok || len(reply) != 3 {
		return "", false, 0, errScriptReply
	}
	value, err := replyString(reply[0])
	if err != nil {
		return "", false, 0, err
	}
	inserted, err := replyUint(reply[1])
	if err != nil {
		return "", false, 0, err
	}
	if inserted == 0 {
		return value, false, 0, nil
	}
	stamp, err := replyUint(reply[2])
	if err != nil {
		return "", false, 0, err
	}
	return value, true, s.observe(stamp), nil
}

func (s *Redis) Take(ctx context.Context, key string) (string, bool, uint64, error) {
	res, err := takeScript.Run(ctx, s.rdb, []string{s.keyspace, s.stampKey}, key).Result()
	if err != nil {
		return "", false, 0, err
	}
	reply, ok := res.([]interface{})
	if !ok || len(reply) != 3 {
		return "", false, 0, errScriptReply
	}
	took, err := replyUint(reply[1])
	if err != nil {
		return "", false, 0, err
	}
	if took == 0 {
		return "", false, 0, nil
	}
	value, err := replyString(reply[0])
	if err != nil {
		return "", false, 0, err
	}
	stamp, err := replyUint(reply[2])
	if err != nil {
		return "", false, 0, err
	}
	return value, true, s.observe(stamp), nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func (s *Redis) observe(v uint64) uint64 { return s.watermark.Observe(v) }

func replyUint(v interface{}) (uint64, error) {
	switch vv := v.(type) {
	case int64:
		if vv < 0 {
			return 0, errScriptReply
		}
		return uint64(vv), nil
	case string:
		return strconv.ParseUint(vv, 10, 64)
	default:
		return 0, errScriptReply
	}
}

func replyString(v interface{}) (string, error) {
	switch vv := v.(type) {
	case string:
		return vv, nil
	case []byte:
		return string(vv), nil
	case int64:
		return strconv.FormatInt(vv, 10), nil
	default:
		return "", errScriptReply
	}
}
