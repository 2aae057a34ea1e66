package durabledict

import (
	"context"
	"errors"

	c "github.com/unkn0wn-root/durabledict/codec"
)

// Typed adapts a Dict to a caller-owned value type V. The store only ever
// holds text, so V round-trips through the codec's byte form; the raw string
// under the same key remains visible to untyped readers of the keyspace.
type Typed[V any] struct {
	dict  Dict
	codec c.Codec[V]
}

// NewTyped wraps d with a codec. d stays usable directly; Typed adds no
// state of its own.
func NewTyped[V any](d Dict, codec c.Codec[V]) *Typed[V] {
	return &Typed[V]{dict: d, codec: codec}
}

// Dict returns the wrapped untyped dictionary.
func (t *Typed[V]) Dict() Dict { return t.dict }

func (t *Typed[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	s, err := t.dict.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	return t.codec.Decode([]byte(s))
}

func (t *Typed[V]) Set(ctx context.Context, key string, value V) error {
	b, err := t.codec.Encode(value)
	if err != nil {
		return err
	}
	return t.dict.Set(ctx, key, string(b))
}

func (t *Typed[V]) Delete(ctx context.Context, key string) error {
	return t.dict.Delete(ctx, key)
}

func (t *Typed[V]) SetDefault(ctx context.Context, key string, def V) (V, error) {
	var zero V
	b, err := t.codec.Encode(def)
	if err != nil {
		return zero, err
	}
	s, err := t.dict.SetDefault(ctx, key, string(b))
	if err != nil {
		return zero, err
	}
	return t.codec.Decode([]byte(s))
}

func (t *Typed[V]) Pop(ctx context.Context, key string) (V, error) {
	var zero V
	s, err := t.dict.Pop(ctx, key)
	if err != nil {
		return zero, err
	}
	return t.codec.Decode([]byte(s))
}

// PopDefault returns def when key is absent; def is never encoded or sent
// to the store.
func (t *Typed[V]) PopDefault(ctx context.Context, key string, def V) (V, error) {
	var zero V
	s, err := t.dict.Pop(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return def, nil
		}
		return zero, err
	}
	return t.codec.Decode([]byte(s))
}
