package bpfmaps

import (
	"errors"

	"github.com/cilium/ebpf"
	"golang.org/x/sys/unix"

	blixterrs "github.com/kubernetes-sigs/blixt/internal/errs"
)

// ebpfTable adapts a pinned *ebpf.Map to Table[K, V]. K and V must be the
// same fixed-layout structs the BPF side declares for this map; cilium/ebpf
// encodes them by raw memory copy, so any change here must stay in lockstep
// with bpf/common.h.
type ebpfTable[K comparable, V any] struct {
	m *ebpf.Map
}

// NewEbpfTable wraps an already-loaded map. Loader owns opening/pinning the
// map and closing it on shutdown; this type never does either.
func NewEbpfTable[K comparable, V any](m *ebpf.Map) Table[K, V] {
	return &ebpfTable[K, V]{m: m}
}

func (t *ebpfTable[K, V]) Lookup(key K) (V, bool, error) {
	var value V
	err := t.m.Lookup(&key, &value)
	if err != nil {
		if errors.Is(err, ebpf.ErrKeyNotExist) {
			var zero V
			return zero, false, nil
		}
		return value, false, blixterrs.ErrMapIO
	}
	return value, true, nil
}

// Upsert performs a single BPF_ANY update, which the kernel treats as an
// atomic replace-or-insert: a concurrent reader in the classifier never sees
// a half-written value. A full map surfaces as E2BIG from the kernel, which
// we translate to ErrResourceExhausted.
func (t *ebpfTable[K, V]) Upsert(key K, value V) error {
	err := t.m.Put(&key, &value)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.E2BIG) {
		return blixterrs.ErrResourceExhausted
	}
	return blixterrs.ErrMapIO
}

func (t *ebpfTable[K, V]) Delete(key K) error {
	err := t.m.Delete(&key)
	if err == nil || errors.Is(err, ebpf.ErrKeyNotExist) {
		return nil
	}
	return blixterrs.ErrMapIO
}

func (t *ebpfTable[K, V]) Iterate(fn func(key K, value V) bool) error {
	var key K
	var value V
	it := t.m.Iterate()
	for it.Next(&key, &value) {
		if !fn(key, value) {
			break
		}
	}
	return it.Err()
}

func (t *ebpfTable[K, V]) Len() (int, error) {
	n := 0
	err := t.Iterate(func(K, V) bool {
		n++
		return true
	})
	return n, err
}
