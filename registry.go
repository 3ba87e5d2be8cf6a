package restful

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
)

// ErrInvalidArgument is returned when a registration is given an empty
// content type or a nil parser or renderer.
var ErrInvalidArgument = errors.New("invalid argument")

// Registration reports the outcome of a registry write: either a fresh
// content type was registered, or an existing entry was replaced.
type Registration[T any] struct {
	previous T
	replaced bool
}

// Replaced reports whether an entry already existed for the content type.
func (r Registration[T]) Replaced() bool { return r.replaced }

// Previous returns the entry that was overwritten, if any. Callers can pass
// it back to Register to restore the earlier behaviour.
func (r Registration[T]) Previous() (T, bool) { return r.previous, r.replaced }

// registry is a content-type keyed map safe for concurrent use. Lookups
// share a read lock; writes are expected at startup.
type registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{entries: make(map[string]T)}
}

func (r *registry[T]) get(contentType string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[contentType]
	return v, ok
}

func (r *registry[T]) snapshot() map[string]T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.entries)
}

func (r *registry[T]) set(contentType string, v T) Registration[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.entries[contentType]
	r.entries[contentType] = v
	return Registration[T]{previous: prev, replaced: ok}
}

func (r *registry[T]) remove(contentType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[contentType]
	delete(r.entries, contentType)
	return ok
}

func (r *registry[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func validContentType(contentType string) error {
	if strings.TrimSpace(contentType) == "" {
		return fmt.Errorf("%w: content type must not be empty", ErrInvalidArgument)
	}
	return nil
}
