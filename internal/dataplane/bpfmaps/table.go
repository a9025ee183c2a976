// Package bpfmaps wraps the three shared, fixed-capacity tables (spec.md
// §4.1): atomic single-key upsert, idempotent delete, and a full-scan
// iterator used by the RPC delete path's orphan purge, the ICMP correlation
// model in internal/dataplane/classify, and the eBPF-backed Len. Production code
// talks to real kernel BPF maps through an *ebpf.Map; tests talk to an
// in-memory double with the identical contract, since exercising the real
// maps needs a kernel and root the way cilium's own suite does in CI but
// unit tests here cannot assume.
package bpfmaps

// Table is the contract both the BPF-backed and in-memory implementations
// satisfy. K and V must be fixed-layout structs matching the C struct the
// classifier programs see.
type Table[K comparable, V any] interface {
	// Lookup returns the value for key and true, or the zero value and
	// false if the key is absent. A lookup never mutates the table.
	Lookup(key K) (V, bool, error)

	// Upsert writes value for key as a single atomic publish. Insertion
	// at capacity fails with errs.ErrResourceExhausted and leaves the
	// table unchanged.
	Upsert(key K, value V) error

	// Delete removes key. Deleting a missing key is a success (§4.1).
	Delete(key K) error

	// Iterate calls fn for every entry. fn returning false stops the
	// scan early. Iterate never observes a torn value: per-key writes
	// are atomic, but entries added or removed mid-scan may or may not
	// be observed, exactly as for a real BPF map iterator.
	Iterate(fn func(key K, value V) bool) error

	// Len reports the number of entries currently stored, for capacity
	// checks and metrics.
	Len() (int, error)
}
