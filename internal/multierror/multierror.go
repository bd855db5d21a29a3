package multierror

import (
	"fmt"
	"strings"
	"sync"
)

// Error combines errors of several independent steps, each identified by a key.
// Keys keep the order in which they were first added.
type Error[T comparable] struct {
	mu     sync.Mutex
	keys   []T
	errors map[T]error
}

func New[T comparable]() *Error[T] {
	return &Error[T]{
		errors: make(map[T]error),
	}
}

func (m *Error[T]) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		parts = append(parts, fmt.Sprintf("%v: %s", k, m.errors[k]))
	}

	return strings.Join(parts, "; ")
}

// Unwrap makes errors.Is and errors.As look into every collected error.
func (m *Error[T]) Unwrap() []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	errs := make([]error, 0, len(m.keys))
	for _, k := range m.keys {
		errs = append(errs, m.errors[k])
	}

	return errs
}

func (m *Error[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.keys)
}

// Add records an error under the key. Nil errors are ignored, so results can be
// added unconditionally.
func (m *Error[T]) Add(key T, err error) {
	if err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.errors[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.errors[key] = err
}

func (m *Error[T]) Get(key T) (error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	err, ok := m.errors[key]

	return err, ok
}

// Combined returns the Error if it contains any errors, nil otherwise.
func (m *Error[T]) Combined() error {
	if m.Len() == 0 {
		return nil
	}

	return m
}
