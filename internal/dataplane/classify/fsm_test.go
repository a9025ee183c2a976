package classify

import (
	"testing"

	"github.com/kubernetes-sigs/blixt/internal/dataplane"
)

func TestAdvanceTCPStateTable(t *testing.T) {
	cases := []struct {
		name         string
		state        dataplane.TCPState
		flags        TCPFlags
		wantState    dataplane.TCPState
		wantTransition bool
	}{
		{"established ack idles", dataplane.TCPStateEstablished, TCPFlags{ACK: true}, dataplane.TCPStateEstablished, false},
		{"established fin moves to finwait1", dataplane.TCPStateEstablished, TCPFlags{FIN: true}, dataplane.TCPStateFinWait1, true},
		{"finwait1 ack moves to finwait2", dataplane.TCPStateFinWait1, TCPFlags{ACK: true}, dataplane.TCPStateFinWait2, true},
		{"finwait1 fin moves to closing", dataplane.TCPStateFinWait1, TCPFlags{FIN: true}, dataplane.TCPStateClosing, true},
		{"finwait1 fin+ack moves to timewait", dataplane.TCPStateFinWait1, TCPFlags{FIN: true, ACK: true}, dataplane.TCPStateTimeWait, true},
		{"finwait2 fin moves to timewait", dataplane.TCPStateFinWait2, TCPFlags{FIN: true}, dataplane.TCPStateTimeWait, true},
		{"finwait2 ack idles", dataplane.TCPStateFinWait2, TCPFlags{ACK: true}, dataplane.TCPStateFinWait2, false},
		{"closing ack moves to timewait", dataplane.TCPStateClosing, TCPFlags{ACK: true}, dataplane.TCPStateTimeWait, true},
		{"timewait any segment closes", dataplane.TCPStateTimeWait, TCPFlags{ACK: true}, dataplane.TCPStateClosed, true},
		{"closed is absorbing", dataplane.TCPStateClosed, TCPFlags{ACK: true}, dataplane.TCPStateClosed, false},
		{"rst from established force closes", dataplane.TCPStateEstablished, TCPFlags{RST: true}, dataplane.TCPStateClosed, true},
		{"rst from finwait2 force closes", dataplane.TCPStateFinWait2, TCPFlags{RST: true}, dataplane.TCPStateClosed, true},
		{"rst on already closed is a no-op", dataplane.TCPStateClosed, TCPFlags{RST: true}, dataplane.TCPStateClosed, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, transitioned := AdvanceTCPState(c.state, c.flags)
			if got != c.wantState || transitioned != c.wantTransition {
				t.Fatalf("AdvanceTCPState(%s, %+v) = (%s, %v), want (%s, %v)",
					c.state, c.flags, got, transitioned, c.wantState, c.wantTransition)
			}
		})
	}
}

// TestTCPStateReachesClosed walks every scripted teardown sequence from
// spec.md's scenarios and checks Closed is reached and then absorbing,
// never resurrecting a torn-down connection.
func TestTCPStateReachesClosed(t *testing.T) {
	sequences := [][]TCPFlags{
		{{FIN: true}, {ACK: true}, {FIN: true}, {ACK: true}},             // client FIN, server ACK+FIN, final ACK
		{{FIN: true}, {FIN: true, ACK: true}, {ACK: true}},                // spec.md S3: client FIN, server FIN+ACK, client ACK
		{{FIN: true}, {FIN: true}, {ACK: true}, {ACK: true}},              // simultaneous close
		{{RST: true}},
	}

	for i, seq := range sequences {
		state := dataplane.TCPStateEstablished
		for _, flags := range seq {
			state, _ = AdvanceTCPState(state, flags)
		}
		if state != dataplane.TCPStateClosed {
			t.Fatalf("sequence %d: ended in %s, want CLOSED", i, state)
		}
		// Closed must be absorbing: nothing further moves it.
		for _, flags := range []TCPFlags{{ACK: true}, {FIN: true}, {SYN: true}} {
			next, transitioned := AdvanceTCPState(state, flags)
			if transitioned || next != dataplane.TCPStateClosed {
				t.Fatalf("sequence %d: CLOSED was not absorbing for %+v", i, flags)
			}
		}
	}
}
