// Package provider implements a small generic registry mapping a textual
// provider id to a concrete implementation, used for the three pluggable
// external contracts (embedder, vector backend, document store). Concrete
// variants are chosen at startup from configuration.
package provider

import (
	"sync"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// Factory is a registry of named implementations of T.
type Factory[T any] struct {
	mu      sync.RWMutex
	label   string
	entries map[string]T
}

// NewFactory creates an empty registry. label is used only in error
// messages (e.g. "embedder", "vector backend").
func NewFactory[T any](label string) *Factory[T] {
	return &Factory[T]{label: label, entries: make(map[string]T)}
}

// Register adds an implementation under id, overwriting any previous entry.
func (f *Factory[T]) Register(id string, impl T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[id] = impl
}

// Get resolves an implementation by id, failing InvalidProvider if unknown.
func (f *Factory[T]) Get(id string) (T, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	impl, ok := f.entries[id]
	if !ok {
		var zero T
		return zero, chonkiterr.InvalidProvider("%s provider %q is not registered", f.label, id)
	}
	return impl, nil
}

// ListProviderIDs returns the registered ids in no particular order.
func (f *Factory[T]) ListProviderIDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids := make([]string, 0, len(f.entries))
	for id := range f.entries {
		ids = append(ids, id)
	}
	return ids
}
