// Package codec provides pluggable (de)serialization for Typed dictionaries.
// The backing store only holds text, so callers with richer value types
// serialize before Set and deserialize after Get; a Codec captures both
// directions in one place.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
