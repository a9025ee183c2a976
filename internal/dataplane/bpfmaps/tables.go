package bpfmaps

import (
	"github.com/cilium/ebpf"

	"github.com/kubernetes-sigs/blixt/internal/dataplane"
)

// Tables is the full shared-state surface the control plane and the two
// classifiers agree on (spec.md §4.1): BACKENDS, GATEWAY_INDEXES and
// LB_CONNECTIONS. It is the sole synchronization boundary between
// internal/rpc and the kernel programs -- nothing else crosses that
// boundary.
type Tables struct {
	Backends       Table[dataplane.BackendKey, dataplane.BackendList]
	GatewayIndexes Table[dataplane.BackendKey, dataplane.GatewayIndex]
	Connections    Table[dataplane.ClientKey, dataplane.LoadBalancerMapping]
}

// NewMemoryTables builds a Tables backed entirely by in-memory doubles, each
// at the real map capacity. Used by every test that exercises internal/rpc,
// internal/dataplane/classify or internal/metrics logic without a kernel.
func NewMemoryTables() *Tables {
	return &Tables{
		Backends:       NewMemoryTable[dataplane.BackendKey, dataplane.BackendList](dataplane.MaxMapEntries),
		GatewayIndexes: NewMemoryTable[dataplane.BackendKey, dataplane.GatewayIndex](dataplane.MaxMapEntries),
		Connections:    NewMemoryTable[dataplane.ClientKey, dataplane.LoadBalancerMapping](dataplane.MaxMapEntries),
	}
}

// NewEbpfTables wraps three already-loaded pinned maps, in the order the
// loader takes them from bpf.LoadIngressObjects' IngressObjects.
func NewEbpfTables(backends, gatewayIndexes, connections *ebpf.Map) *Tables {
	return &Tables{
		Backends:       NewEbpfTable[dataplane.BackendKey, dataplane.BackendList](backends),
		GatewayIndexes: NewEbpfTable[dataplane.BackendKey, dataplane.GatewayIndex](gatewayIndexes),
		Connections:    NewEbpfTable[dataplane.ClientKey, dataplane.LoadBalancerMapping](connections),
	}
}

// PurgeConnectionsFor deletes every LB_CONNECTIONS entry whose backend
// matches key, the orphan-purge step Delete must run (spec.md §4.6, §9 Open
// Question "purge on delete"): once a VIP's BackendList is gone, any flow
// still pinned to one of its former backends must not keep rewriting
// packets to it. Mirrors the scan-and-collect-then-delete shape cilium's own
// reconciler uses for its prune passes, since a BPF map iterator does not
// support deleting the current entry mid-walk.
func (t *Tables) PurgeConnectionsFor(key dataplane.BackendKey) error {
	var stale []dataplane.ClientKey
	err := t.Connections.Iterate(func(ck dataplane.ClientKey, mapping dataplane.LoadBalancerMapping) bool {
		if mapping.BackendKey == key {
			stale = append(stale, ck)
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, ck := range stale {
		if err := t.Connections.Delete(ck); err != nil {
			return err
		}
	}
	return nil
}
