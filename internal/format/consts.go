// Package format houses the low-level layout of a boundary-tag heap: the
// word and alignment sizes, the packed (size, allocated) tag encoding, and
// little-endian word access. It has no state; every other heap package
// builds on it.
package format

const (
	// WordSize is the size of a header or footer tag in bytes.
	WordSize = 4

	// DoubleWordSize is the alignment unit. Every block size and every
	// payload offset is a multiple of it.
	DoubleWordSize = 8

	// TagOverhead is the header plus footer cost carried by every block.
	TagOverhead = 2 * WordSize

	// MinBlockSize is the smallest legal block: header, footer and one
	// alignment unit of payload.
	MinBlockSize = 2 * DoubleWordSize

	// ChunkSize is the default amount the heap is extended by when no free
	// block fits a request.
	ChunkSize = 1 << 12

	// MaxHeap is the default capacity of the heap region (16 MiB).
	MaxHeap = 1 << 24

	// InitialHeapSize is the skeleton laid down by heap initialization:
	// alignment pad, prologue header, prologue footer, epilogue header.
	InitialHeapSize = 4 * WordSize

	// PadOffset is the unused alignment word at the very start of the heap.
	PadOffset = 0

	// PrologueOffset is the payload offset of the prologue block. The
	// implicit block list is walked from here.
	PrologueOffset = 2 * WordSize

	// FirstBlockOffset is the payload offset of the first real block once
	// the heap has been extended.
	FirstBlockOffset = PrologueOffset + DoubleWordSize

	// SizeMask clears the flag bits of a tag.
	SizeMask = ^uint32(0x7)

	// AllocatedBit marks a block as in use.
	AllocatedBit = uint32(0x1)
)
