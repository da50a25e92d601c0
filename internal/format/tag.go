package format

// A tag is one word holding a block size in its upper 29 bits and the
// allocated flag in bit 0. Headers and footers are both tags.
//
//	     |<- requested ->|
//	+-----+--------------+---------+-----+
//	| hdr |   payload    | padding | ftr |
//	+-----+--------------+---------+-----+
//	 word                           word
//	|<-------     block size      ------>|
//
// All helpers below assume well-formed input. A garbage tag decodes to a
// garbage size; that is a caller bug, not an error condition.

// Pack combines a block size and an allocated flag into a tag. size must
// have its low three bits clear.
func Pack(size uint32, allocated bool) uint32 {
	if allocated {
		return size | AllocatedBit
	}
	return size
}

// SizeOf returns the block size encoded in a tag.
func SizeOf(tag uint32) uint32 {
	return tag & SizeMask
}

// IsAllocated reports whether a tag has its allocated flag set.
func IsAllocated(tag uint32) bool {
	return tag&AllocatedBit != 0
}

// HeaderOffset returns the offset of the header tag for the block whose
// payload starts at bp.
func HeaderOffset(bp int) int {
	return bp - WordSize
}

// FooterOffset returns the offset of the footer tag for a block of the given
// size whose payload starts at bp.
func FooterOffset(bp, size int) int {
	return bp + size - DoubleWordSize
}

// PrevFooterOffset returns the offset of the footer belonging to the block
// immediately before the one whose payload starts at bp.
func PrevFooterOffset(bp int) int {
	return bp - DoubleWordSize
}
