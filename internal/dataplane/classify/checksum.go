// Package classify is a pure-Go model of the decision trees bpf/ingress.c
// and bpf/egress.c encode in BPF bytecode (spec.md §4.2-§4.4, §4.7): backend
// dispatch, TCP teardown, ICMP correlation, and incremental checksum update.
// The kernel programs are exercised only by the (out-of-scope) integration
// harness; this package exists so the properties spec.md §8 asks for can be
// checked with plain `go test`, against logic that is line-for-line the same
// as what the C side does.
package classify

// UpdateChecksum16 applies the RFC 1624 incremental update to a one's
// complement checksum after a 16-bit field changes, without re-summing the
// packet (spec.md §4.7). old is the checksum as stored on the wire
// (one's-complement-complemented); oldField/newField are the replaced field
// in host order.
func UpdateChecksum16(old uint16, oldField, newField uint16) uint16 {
	return updateChecksum(old, oldField, newField)
}

// UpdateChecksum32 is UpdateChecksum16 generalized to a 32-bit field (an
// IPv4 address), folding it as two 16-bit words per RFC 1071.
func UpdateChecksum32(old uint16, oldField, newField uint32) uint16 {
	c := updateChecksum(old, uint16(oldField>>16), uint16(newField>>16))
	return updateChecksum(c, uint16(oldField), uint16(newField))
}

// updateChecksum is the textbook csum_replace step: add back the one's
// complement of the removed word, add the new word, fold carries twice
// (one fold can leave a carry out of the top byte), complement.
func updateChecksum(old uint16, oldWord, newWord uint16) uint16 {
	sum := uint32(^old&0xffff) + uint32(^oldWord&0xffff) + uint32(newWord)
	sum = (sum & 0xffff) + (sum >> 16)
	sum = (sum & 0xffff) + (sum >> 16)
	return ^uint16(sum)
}

// checksumRFC1071 computes a one's-complement checksum over 16-bit words,
// used only by tests as the brute-force reference UpdateChecksum16/32 must
// agree with after a rewrite.
func checksumRFC1071(words []uint16) uint16 {
	var sum uint32
	for _, w := range words {
		sum += uint32(w)
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}
