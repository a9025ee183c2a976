// Package dataplane holds the data model shared between the control plane
// (internal/rpc) and the two classifier programs (bpf/ingress.c,
// bpf/egress.c): BackendKey, Backend, BackendList, ClientKey,
// LoadBalancerMapping, GatewayIndex and TCPState, laid out to match the C
// structs the BPF programs see through BACKENDS, GATEWAY_INDEXES and
// LB_CONNECTIONS (spec.md §3). Every field is host-order; the boundary
// conversion to/from network order happens once, at the packet edge inside
// the classifiers, never here.
package dataplane

// MaxMapEntries is the fixed capacity of each of the three shared tables.
const MaxMapEntries = 128

// MaxBackends is the fixed number of slots in a BackendList.
const MaxBackends = 128

// BackendKey identifies a VIP: destination IPv4 address and port, both
// host-order. It is the key of BACKENDS and GATEWAY_INDEXES.
type BackendKey struct {
	IP   uint32
	Port uint32
}

// Backend is a single concrete destination a VIP can be dispatched to.
type Backend struct {
	DAddr   uint32
	DPort   uint32
	IfIndex uint16
	_pad    uint16
}

// BackendList is the whole-value published by Update (§4.6): a fixed array
// of backends plus a length. It must be written atomically -- a reader must
// never observe a partially updated list (§4.1).
type BackendList struct {
	Backends [MaxBackends]Backend
	Len      uint16
	_pad     [6]byte
}

// ClientKey identifies one flow: client source IPv4 address and port. Port
// is 0 for UDP (ICMP correlation cannot recover a UDP source port). It is
// the key of LB_CONNECTIONS.
type ClientKey struct {
	IP   uint32
	Port uint32
}

// TCPState is the sum-typed connection teardown state (spec.md §4.4). Its
// representation is a single byte so the BPF side can treat it as plain
// data with no pointers.
type TCPState uint8

const (
	// TCPStateEstablished is the default state for a freshly created TCP
	// mapping.
	TCPStateEstablished TCPState = iota
	TCPStateFinWait1
	TCPStateFinWait2
	TCPStateClosing
	TCPStateTimeWait
	// TCPStateClosed is absorbing; reaching it triggers map eviction.
	TCPStateClosed
)

// String renders a TCPState for logs and test failure messages.
func (s TCPState) String() string {
	switch s {
	case TCPStateEstablished:
		return "ESTABLISHED"
	case TCPStateFinWait1:
		return "FIN_WAIT_1"
	case TCPStateFinWait2:
		return "FIN_WAIT_2"
	case TCPStateClosing:
		return "CLOSING"
	case TCPStateTimeWait:
		return "TIME_WAIT"
	case TCPStateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// LoadBalancerMapping is the value stored in LB_CONNECTIONS: the backend a
// flow was pinned to, the VIP it arrived on, and (TCP only) teardown state.
// HasTCPState is the sole protocol discriminator once the entry is in the
// map (spec.md §3): true for TCP, false for UDP.
type LoadBalancerMapping struct {
	Backend     Backend
	BackendKey  BackendKey
	HasTCPState bool
	TCPState    TCPState
	_pad        [6]byte
}

// GatewayIndex is the per-VIP round-robin cursor stored in GATEWAY_INDEXES.
// It is read-then-written without locking (§4.2); concurrent readers may
// race and pick the same backend, which is acceptable skew, not corruption.
type GatewayIndex struct {
	Cursor uint16
	_pad   [6]byte
}
