package classify

import (
	"encoding/binary"
	"fmt"

	"github.com/mdlayher/ethernet"
)

// DecodeIngress parses a raw Ethernet frame carrying an IPv4 datagram into
// the fields Ingress needs, the Go-side twin of what bpf/ingress.c's
// header-parsing prologue does in C. It exists so replay/fuzz tooling can
// drive the reference model from captured packets instead of hand-built
// PacketIngress values.
func DecodeIngress(raw []byte) (PacketIngress, error) {
	var frame ethernet.Frame
	if err := (&frame).UnmarshalBinary(raw); err != nil {
		return PacketIngress{}, fmt.Errorf("unmarshaling ethernet frame: %w", err)
	}
	if frame.EtherType != ethernet.EtherTypeIPv4 {
		return PacketIngress{}, fmt.Errorf("unsupported ethertype %#04x", uint16(frame.EtherType))
	}
	return decodeIPv4(frame.Payload)
}

func decodeIPv4(b []byte) (PacketIngress, error) {
	if len(b) < 20 {
		return PacketIngress{}, fmt.Errorf("ipv4 header truncated: %d bytes", len(b))
	}
	if b[0]>>4 != 4 {
		return PacketIngress{}, fmt.Errorf("not an ipv4 packet: version %d", b[0]>>4)
	}
	ihl := int(b[0]&0x0f) * 4
	if ihl < 20 || len(b) < ihl {
		return PacketIngress{}, fmt.Errorf("invalid ipv4 header length %d", ihl)
	}

	pkt := PacketIngress{
		Proto: L4Proto(b[9]),
		SrcIP: binary.BigEndian.Uint32(b[12:16]),
		DstIP: binary.BigEndian.Uint32(b[16:20]),
	}

	l4 := b[ihl:]
	switch pkt.Proto {
	case ProtoTCP:
		if len(l4) < 20 {
			return PacketIngress{}, fmt.Errorf("tcp header truncated: %d bytes", len(l4))
		}
		pkt.SrcPort = binary.BigEndian.Uint16(l4[0:2])
		pkt.DstPort = binary.BigEndian.Uint16(l4[2:4])
		flags := l4[13]
		pkt.Flags = TCPFlags{
			SYN: flags&0x02 != 0,
			ACK: flags&0x10 != 0,
			FIN: flags&0x01 != 0,
			RST: flags&0x04 != 0,
		}
	case ProtoUDP:
		if len(l4) < 8 {
			return PacketIngress{}, fmt.Errorf("udp header truncated: %d bytes", len(l4))
		}
		pkt.SrcPort = binary.BigEndian.Uint16(l4[0:2])
		pkt.DstPort = binary.BigEndian.Uint16(l4[2:4])
	case ProtoICMP:
		// No ports; left zero, as clientKeyFor keys ICMP by address only.
	default:
		return PacketIngress{}, fmt.Errorf("unsupported ip protocol %d", pkt.Proto)
	}

	return pkt, nil
}
