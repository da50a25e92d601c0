package format

import (
	"testing"
)

func TestPackRoundTrip(t *testing.T) {
	tests := []struct {
		size      uint32
		allocated bool
		want      uint32
	}{
		{0, true, 0x1},
		{8, true, 0x9},
		{16, false, 0x10},
		{4096, false, 0x1000},
		{4096, true, 0x1001},
		{MaxHeap, true, MaxHeap | 1},
	}
	for _, tt := range tests {
		tag := Pack(tt.size, tt.allocated)
		if tag != tt.want {
			t.Fatalf("Pack(%d,%v)=0x%x want 0x%x", tt.size, tt.allocated, tag, tt.want)
		}
		if SizeOf(tag) != tt.size {
			t.Fatalf("SizeOf(0x%x)=%d want %d", tag, SizeOf(tag), tt.size)
		}
		if IsAllocated(tag) != tt.allocated {
			t.Fatalf("IsAllocated(0x%x)=%v want %v", tag, IsAllocated(tag), tt.allocated)
		}
	}
}

func TestSizeOfMasksFlagBits(t *testing.T) {
	// Bits 1 and 2 are not part of the size either.
	if got := SizeOf(0xabcdef11); got != 0xabcdef10 {
		t.Fatalf("SizeOf(0xabcdef11)=0x%x want 0xabcdef10", got)
	}
	if got := SizeOf(0x17); got != 0x10 {
		t.Fatalf("SizeOf(0x17)=0x%x want 0x10", got)
	}
}

func TestTagOffsets(t *testing.T) {
	bp := FirstBlockOffset
	if HeaderOffset(bp) != 12 {
		t.Fatalf("HeaderOffset(%d)=%d want 12", bp, HeaderOffset(bp))
	}
	if FooterOffset(bp, 24) != 32 {
		t.Fatalf("FooterOffset(%d,24)=%d want 32", bp, FooterOffset(bp, 24))
	}
	if PrevFooterOffset(bp) != 8 {
		t.Fatalf("PrevFooterOffset(%d)=%d want 8", bp, PrevFooterOffset(bp))
	}
}

func TestWordAccessIsLittleEndian(t *testing.T) {
	b := make([]byte, 8)
	PutU32(b, 4, 0x01020304)
	if b[4] != 0x04 || b[7] != 0x01 {
		t.Fatalf("unexpected byte order: % x", b)
	}
	if ReadU32(b, 4) != 0x01020304 {
		t.Fatalf("ReadU32 mismatch: 0x%x", ReadU32(b, 4))
	}
}
