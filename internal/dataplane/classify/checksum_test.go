package classify

import (
	"math/rand"
	"testing"
)

// TestUpdateChecksum16MatchesRecompute is spec.md §8's checksum law: the
// incremental update must always equal a full recompute over the changed
// word.
func TestUpdateChecksum16MatchesRecompute(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		words := []uint16{uint16(r.Uint32()), uint16(r.Uint32()), uint16(r.Uint32()), uint16(r.Uint32())}
		oldSum := checksumRFC1071(words)

		pos := r.Intn(len(words))
		oldField := words[pos]
		newField := uint16(r.Uint32())

		got := UpdateChecksum16(oldSum, oldField, newField)

		words[pos] = newField
		want := checksumRFC1071(words)

		if got != want {
			t.Fatalf("iteration %d: UpdateChecksum16(%#04x, %#04x, %#04x) = %#04x, want %#04x",
				i, oldSum, oldField, newField, got, want)
		}
	}
}

func TestUpdateChecksum32MatchesRecompute(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		words := []uint16{uint16(r.Uint32()), uint16(r.Uint32()), uint16(r.Uint32()), uint16(r.Uint32())}
		oldSum := checksumRFC1071(words)

		pos := r.Intn(len(words) - 1)
		oldField := uint32(words[pos])<<16 | uint32(words[pos+1])
		newField := r.Uint32()

		got := UpdateChecksum32(oldSum, oldField, newField)

		words[pos] = uint16(newField >> 16)
		words[pos+1] = uint16(newField)
		want := checksumRFC1071(words)

		if got != want {
			t.Fatalf("iteration %d: UpdateChecksum32(%#04x, %#08x, %#08x) = %#04x, want %#04x",
				i, oldSum, oldField, newField, got, want)
		}
	}
}

func TestUpdateChecksum16NoOpWhenFieldUnchanged(t *testing.T) {
	words := []uint16{0x1234, 0x5678, 0x9abc}
	sum := checksumRFC1071(words)
	if got := UpdateChecksum16(sum, words[1], words[1]); got != sum {
		t.Fatalf("replacing a field with itself changed the checksum: %#04x -> %#04x", sum, got)
	}
}
