package classify

import "github.com/kubernetes-sigs/blixt/internal/dataplane"

// TCPFlags is the subset of a TCP segment's flag bits the teardown state
// machine cares about.
type TCPFlags struct {
	SYN bool
	ACK bool
	FIN bool
	RST bool
}

// AdvanceTCPState is the pure transition function backing spec.md §4.4's
// teardown table: next state and whether a transition actually happened,
// given the current state and the flags on the segment just seen. It has no
// side effects and no knowledge of which map it will be written back to --
// bpf/conntrack.h's C version mirrors it by hand; fsm_test.go's (state,
// flags) table checks this Go version only.
func AdvanceTCPState(state dataplane.TCPState, flags TCPFlags) (dataplane.TCPState, bool) {
	if flags.RST {
		if state == dataplane.TCPStateClosed {
			return state, false
		}
		return dataplane.TCPStateClosed, true
	}

	switch state {
	case dataplane.TCPStateEstablished:
		if flags.FIN {
			return dataplane.TCPStateFinWait1, true
		}
		return state, false

	case dataplane.TCPStateFinWait1:
		// A combined FIN+ACK (the normal graceful-close case: the peer
		// both acks our FIN and sends its own) goes straight to TimeWait
		// and must be checked before the bare-FIN case below, since a FIN
		// segment may carry ACK too. A bare FIN with no ACK is the
		// simultaneous-close case (-> Closing); a bare ACK of our FIN with
		// no FIN yet is -> FinWait2.
		if flags.FIN && flags.ACK {
			return dataplane.TCPStateTimeWait, true
		}
		if flags.FIN {
			return dataplane.TCPStateClosing, true
		}
		if flags.ACK {
			return dataplane.TCPStateFinWait2, true
		}
		return state, false

	case dataplane.TCPStateFinWait2:
		if flags.FIN {
			return dataplane.TCPStateTimeWait, true
		}
		return state, false

	case dataplane.TCPStateClosing:
		if flags.ACK {
			return dataplane.TCPStateTimeWait, true
		}
		return state, false

	case dataplane.TCPStateTimeWait:
		// Absorbing transition: the next segment observed in TimeWait (the
		// final ACK, or a retransmit) is enough signal to evict the entry.
		return dataplane.TCPStateClosed, true

	case dataplane.TCPStateClosed:
		return state, false

	default:
		return state, false
	}
}
