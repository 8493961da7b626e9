// Package optional distinguishes a JSON field that was omitted from one that
// was explicitly set to null.
package optional

import (
	"bytes"
	"encoding/json"
)

type Value[T any] struct {
	set  bool
	null bool
	v    T
}

func Some[T any](v T) Value[T] {
	return Value[T]{set: true, v: v}
}

func Null[T any]() Value[T] {
	return Value[T]{set: true, null: true}
}

// IsSet reports whether the field was present in the payload, null included.
func (o Value[T]) IsSet() bool { return o.set }

// IsNull reports whether the field was present and explicitly null.
func (o Value[T]) IsNull() bool { return o.set && o.null }

// Get returns the value and true when a non-null value was supplied.
func (o Value[T]) Get() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.v, true
}

func (o *Value[T]) UnmarshalJSON(b []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		o.null = true
		o.v = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(b, &o.v)
}

func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.set || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}
