package bpfmaps

import (
	"sync"

	"github.com/kubernetes-sigs/blixt/internal/errs"
)

// memoryTable is a Table[K, V] backed by a plain Go map under a mutex. It is
// used by every test in this repo that needs a Table but cannot assume a
// kernel: internal/rpc's handlers, internal/dataplane/classify's reference
// model, internal/metrics' gauges, and this package's own tables_test.go all
// exercise the exact same
// capacity and idempotent-delete behavior a real BPF map would enforce.
type memoryTable[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]V
	capacity int
}

// NewMemoryTable returns a Table with the given fixed capacity, matching the
// MaxMapEntries a real BPF map would be created with.
func NewMemoryTable[K comparable, V any](capacity int) Table[K, V] {
	return &memoryTable[K, V]{
		entries:  make(map[K]V),
		capacity: capacity,
	}
}

func (t *memoryTable[K, V]) Lookup(key K) (V, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[key]
	return v, ok, nil
}

func (t *memoryTable[K, V]) Upsert(key K, value V) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[key]; !exists && len(t.entries) >= t.capacity {
		return errs.ErrResourceExhausted
	}
	t.entries[key] = value
	return nil
}

func (t *memoryTable[K, V]) Delete(key K) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
	return nil
}

func (t *memoryTable[K, V]) Iterate(fn func(key K, value V) bool) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, v := range t.entries {
		if !fn(k, v) {
			break
		}
	}
	return nil
}

func (t *memoryTable[K, V]) Len() (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries), nil
}
