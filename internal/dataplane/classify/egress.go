package classify

import (
	"github.com/kubernetes-sigs/blixt/internal/dataplane"
	"github.com/kubernetes-sigs/blixt/internal/dataplane/bpfmaps"
)

// PacketEgress is the subset of a backend-to-client packet the egress
// classifier needs to restore the VIP's identity as the source (spec.md
// §4.3).
type PacketEgress struct {
	Proto            L4Proto
	SrcIP, DstIP     uint32
	SrcPort, DstPort uint16
	Flags            TCPFlags
}

// EgressResult is the source rewrite the caller must apply before the
// packet reaches the client.
type EgressResult struct {
	Verdict Verdict
	SrcIP   uint32
	SrcPort uint16
}

// Egress rewrites a backend's reply to appear to come from the VIP, and for
// TCP advances the teardown state machine on the reverse leg of the
// connection. This is the reference model for bpf/egress.c.
func Egress(tables *bpfmaps.Tables, pkt PacketEgress) (EgressResult, error) {
	ck := clientKeyFor(pkt.Proto, pkt.DstIP, pkt.DstPort)

	mapping, found, err := tables.Connections.Lookup(ck)
	if err != nil {
		return EgressResult{}, err
	}
	if !found {
		return EgressResult{Verdict: VerdictPass}, nil
	}

	if pkt.Proto == ProtoTCP && mapping.HasTCPState {
		if next, transitioned := AdvanceTCPState(mapping.TCPState, pkt.Flags); transitioned {
			if next == dataplane.TCPStateClosed {
				if err := tables.Connections.Delete(ck); err != nil {
					return EgressResult{}, err
				}
				return sourceRewrite(mapping), nil
			}
			mapping.TCPState = next
			if err := tables.Connections.Upsert(ck, mapping); err != nil {
				return EgressResult{}, err
			}
		}
	}

	return sourceRewrite(mapping), nil
}

func sourceRewrite(mapping dataplane.LoadBalancerMapping) EgressResult {
	return EgressResult{
		Verdict: VerdictRedirect,
		SrcIP:   mapping.BackendKey.IP,
		SrcPort: uint16(mapping.BackendKey.Port),
	}
}

// EgressICMPUnreachable correlates an ICMP Destination Unreachable a
// backend sent back towards a client it could not serve. The original
// datagram is embedded in the ICMP payload with the backend as its source,
// so the only way back to the client is a reverse scan of LB_CONNECTIONS
// for the entry whose Backend matches the embedded source (spec.md §4.3).
func EgressICMPUnreachable(tables *bpfmaps.Tables, backendIP uint32, backendPort uint16) (clientIP uint32, clientPort uint16, found bool, err error) {
	err = tables.Connections.Iterate(func(ck dataplane.ClientKey, m dataplane.LoadBalancerMapping) bool {
		if m.Backend.DAddr == backendIP && m.Backend.DPort == uint32(backendPort) {
			clientIP, clientPort, found = ck.IP, uint16(ck.Port), true
			return false
		}
		return true
	})
	return
}
