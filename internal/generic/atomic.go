package generic

import "sync/atomic"

// Atomic is the same as atomic.Value with additional type safety. The zero
// value holds the zero value of T.
type Atomic[T any] struct {
	value atomic.Value
}

func (v *Atomic[T]) Load() T {
	if val, ok := v.value.Load().(T); ok {
		return val
	}

	var zero T

	return zero
}

func (v *Atomic[T]) Store(value T) {
	v.value.Store(value)
}
