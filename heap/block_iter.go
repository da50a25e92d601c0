package heap

import (
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// BlockIterator walks the implicit block list in address order. It yields
// every real block and returns io.EOF once it reaches the epilogue. An
// iterator can be restarted with Reset; it holds no state besides a cursor.
type BlockIterator struct {
	buf   []byte
	start int
	bp    int
	done  bool
}

// Blocks returns an iterator over the real blocks of a heap image, starting
// right after the prologue.
func Blocks(data []byte) *BlockIterator {
	return BlocksFrom(data, format.FirstBlockOffset)
}

// BlocksFrom returns an iterator starting at the block whose payload is at bp.
func BlocksFrom(data []byte, bp int) *BlockIterator {
	return &BlockIterator{buf: data, start: bp, bp: bp}
}

// Next returns the next block, io.EOF at the epilogue, or an error when the
// walk runs off the buffer or meets a malformed size.
func (it *BlockIterator) Next() (Block, error) {
	if it.done {
		return Block{}, io.EOF
	}

	hdr := format.HeaderOffset(it.bp)
	if !buf.Has(it.buf, hdr, format.WordSize) {
		it.done = true
		return Block{}, fmt.Errorf("heap: block header at %d: %w (len=%d)", hdr, format.ErrTruncated, len(it.buf))
	}

	b := Block{Buf: it.buf, BP: it.bp}
	size := b.Size()
	if size == 0 {
		it.done = true
		return Block{}, io.EOF
	}

	if size < format.MinBlockSize || size%format.DoubleWordSize != 0 {
		it.done = true
		return Block{}, fmt.Errorf("heap: block at %d has invalid size %d", it.bp, size)
	}

	// The footer and the successor's header must both fit.
	if !buf.Has(it.buf, hdr, size+format.WordSize) {
		it.done = true
		return Block{}, fmt.Errorf("heap: block at %d size %d: %w (len=%d)", it.bp, size, format.ErrTruncated, len(it.buf))
	}

	it.bp += size
	return b, nil
}

// Epilogue returns the payload offset the walk stopped at. It is only
// meaningful after Next has returned io.EOF.
func (it *BlockIterator) Epilogue() int {
	return it.bp
}

// Reset rewinds the iterator to its starting block.
func (it *BlockIterator) Reset() {
	it.bp = it.start
	it.done = false
}

// BlockInfo is a decoded snapshot of one block.
type BlockInfo struct {
	BP        int  // Payload offset
	Size      int  // Block size including tags
	Allocated bool // Header allocated flag
}

// Scan walks every real block of a heap image and returns their snapshots.
func Scan(data []byte) ([]BlockInfo, error) {
	var blocks []BlockInfo
	it := Blocks(data)
	for {
		b, err := it.Next()
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, BlockInfo{BP: b.BP, Size: b.Size(), Allocated: b.IsAllocated()})
	}
}

// End walks the block list of data and returns the break: the offset just
// past the epilogue header. Anything after it is unused capacity, as in an
// image file saved from a file-backed region.
func End(data []byte) (int, error) {
	it := Blocks(data)
	for {
		_, err := it.Next()
		if err == io.EOF {
			return it.Epilogue(), nil
		}
		if err != nil {
			return 0, err
		}
	}
}
