package heap

import (
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Block is a zero-cost view over a single heap block. A block looks like:
//
//	uint32  header   // size | allocated
//	...     payload  // BP points here
//	uint32  footer   // copy of header
//
// Size always covers header, payload, padding and footer.
type Block struct {
	// Buf is the heap image backing this block.
	Buf []byte
	// BP is the payload offset of this block within Buf.
	BP int
}

// At returns the block whose payload starts at bp.
func At(data []byte, bp int) Block {
	checkPayload(data, bp)
	return Block{Buf: data, BP: bp}
}

// Header returns the offset of the header tag.
func (b Block) Header() int {
	return format.HeaderOffset(b.BP)
}

// Footer returns the offset of the footer tag, derived from the header size.
func (b Block) Footer() int {
	return format.FooterOffset(b.BP, b.Size())
}

// HeaderWord returns the raw header tag.
func (b Block) HeaderWord() uint32 {
	return readTag(b.Buf, b.Header())
}

// FooterWord returns the raw footer tag.
func (b Block) FooterWord() uint32 {
	return readTag(b.Buf, b.Footer())
}

// Size returns the block size recorded in the header.
func (b Block) Size() int {
	return int(format.SizeOf(b.HeaderWord()))
}

// IsAllocated reports whether the header marks the block in use.
func (b Block) IsAllocated() bool {
	return format.IsAllocated(b.HeaderWord())
}

// IsEpilogue reports whether b is the size-0 sentinel at the end of the heap.
func (b Block) IsEpilogue() bool {
	return b.Size() == 0
}

// Next returns the block that follows b in address order.
func (b Block) Next() Block {
	return At(b.Buf, b.BP+b.Size())
}

// PrevSize returns the size of the preceding block, read from its footer.
func (b Block) PrevSize() int {
	return int(format.SizeOf(readTag(b.Buf, format.PrevFooterOffset(b.BP))))
}

// PrevAllocated reports whether the preceding block is in use, read from its footer.
func (b Block) PrevAllocated() bool {
	return format.IsAllocated(readTag(b.Buf, format.PrevFooterOffset(b.BP)))
}

// Prev returns the block that precedes b in address order.
func (b Block) Prev() Block {
	return At(b.Buf, b.BP-b.PrevSize())
}

// Payload returns the caller-visible bytes of the block, or nil for the
// epilogue and for a block whose size runs past the buffer.
func (b Block) Payload() []byte {
	p, _ := buf.Slice(b.Buf, b.BP, b.Size()-format.TagOverhead)
	return p
}

// SetHeader writes the header tag.
func (b Block) SetHeader(size int, allocated bool) {
	writeTag(b.Buf, b.Header(), format.Pack(uint32(size), allocated))
}

// SetFooter writes the footer tag for a block of the given size. The size is
// passed explicitly so callers can grow or shrink a block before its header
// is rewritten.
func (b Block) SetFooter(size int, allocated bool) {
	writeTag(b.Buf, format.FooterOffset(b.BP, size), format.Pack(uint32(size), allocated))
}

// SetTags writes matching header and footer tags.
func (b Block) SetTags(size int, allocated bool) {
	b.SetHeader(size, allocated)
	b.SetFooter(size, allocated)
}

func readTag(data []byte, off int) uint32 {
	checkTag(data, off)
	return format.ReadU32(data, off)
}

func writeTag(data []byte, off int, tag uint32) {
	checkTag(data, off)
	format.PutU32(data, off, tag)
}
