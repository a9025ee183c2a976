package classify

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildTCPFrame(t *testing.T, src, dst net.IP, srcPort, dstPort uint16, flags TCPFlags) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    src,
		DstIP:    dst,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		SYN:     flags.SYN,
		ACK:     flags.ACK,
		FIN:     flags.FIN,
		RST:     flags.RST,
		Window:  1024,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeIngressMatchesConstructedTCPFrame(t *testing.T) {
	src := net.IPv4(10, 0, 0, 5)
	dst := net.IPv4(10, 0, 0, 99)
	raw := buildTCPFrame(t, src, dst, 54321, 80, TCPFlags{SYN: true})

	pkt, err := DecodeIngress(raw)
	if err != nil {
		t.Fatalf("DecodeIngress: %v", err)
	}

	if got, want := pkt.Proto, ProtoTCP; got != want {
		t.Fatalf("Proto = %d, want %d", got, want)
	}
	if got, want := pkt.SrcIP, ipToUint32(t, src); got != want {
		t.Fatalf("SrcIP = %#08x, want %#08x", got, want)
	}
	if got, want := pkt.DstIP, ipToUint32(t, dst); got != want {
		t.Fatalf("DstIP = %#08x, want %#08x", got, want)
	}
	if got, want := pkt.SrcPort, uint16(54321); got != want {
		t.Fatalf("SrcPort = %d, want %d", got, want)
	}
	if got, want := pkt.DstPort, uint16(80); got != want {
		t.Fatalf("DstPort = %d, want %d", got, want)
	}
	if !pkt.Flags.SYN {
		t.Fatal("SYN flag not decoded")
	}
}

func TestDecodeIngressRejectsNonIPv4Ethertype(t *testing.T) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		DstMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 2},
		EthernetType: layers.EthernetTypeIPv6,
		Length:       0,
	}
	buf := gopacket.NewSerializeBuffer()
	// A bare Ethernet header with no payload is enough to exercise the
	// ethertype check before any IPv4 parsing happens.
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}

	if _, err := DecodeIngress(buf.Bytes()); err == nil {
		t.Fatal("expected an error for a non-IPv4 ethertype")
	}
}

func ipToUint32(t *testing.T, ip net.IP) uint32 {
	t.Helper()
	v4 := ip.To4()
	if v4 == nil {
		t.Fatalf("%s is not an IPv4 address", ip)
	}
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}
