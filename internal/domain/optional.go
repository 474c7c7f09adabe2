package domain

import (
	"bytes"
	"encoding/json"
)

type optionalState uint8

const (
	optionalUnset optionalState = iota
	optionalClear
	optionalSet
)

// Optional distinguishes an omitted field (Unset), an explicit null (Clear)
// and a supplied value (Set). The zero value is Unset, so a struct field of
// this type decodes as Unset when its JSON key is absent.
type Optional[T any] struct {
	state optionalState
	value T
}

func Set[T any](v T) Optional[T] {
	return Optional[T]{state: optionalSet, value: v}
}

func Clear[T any]() Optional[T] {
	return Optional[T]{state: optionalClear}
}

func Unset[T any]() Optional[T] {
	return Optional[T]{}
}

// Present is true for both Clear and Set.
func (o Optional[T]) Present() bool { return o.state != optionalUnset }

func (o Optional[T]) IsSet() bool { return o.state == optionalSet }

func (o Optional[T]) IsClear() bool { return o.state == optionalClear }

// Value returns the supplied value, or the zero value for Unset and Clear.
func (o Optional[T]) Value() T { return o.value }

// Ptr returns nil for Unset and Clear.
func (o Optional[T]) Ptr() *T {
	if o.state != optionalSet {
		return nil
	}
	v := o.value
	return &v
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.state, o.value = optionalClear, zero
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.state, o.value = optionalSet, v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.state != optionalSet {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
