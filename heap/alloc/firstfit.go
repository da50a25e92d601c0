package alloc

import (
	"fmt"
	"io"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// FirstFitAllocator is an implicit-list allocator with boundary tags.
//   - Every block carries matching header and footer tags, so neighbors are
//     found by arithmetic alone
//   - Alloc scans the block list from the front and takes the first free
//     block that is large enough, splitting off any usable remainder
//   - Free merges with free neighbors immediately; no two free blocks are
//     ever adjacent between calls
//   - When nothing fits, the heap is extended by at least one chunk
//
// Not safe for concurrent use. Callers that share an allocator must wrap
// every call in a single mutex.
type FirstFitAllocator struct {
	h  Heap
	dt DirtyTracker // Dirty tracker for tag writes (nil to disable)

	chunk     int // Minimum extension in bytes
	base      int // Region offset the skeleton was laid down at
	heapStart int // Prologue payload offset; the list is walked from here

	// Checked mode bookkeeping (nil when disabled)
	live  map[Ptr]struct{}
	freed map[Ptr]struct{}

	stats Stats
}

// NewFirstFit lays down the heap skeleton on h and seeds it with one chunk
// of free space. On failure no allocator is returned: a heap whose
// initialization failed must not be used.
//
// Parameters:
//   - h: The heap provider to grow
//   - dt: Dirty tracker for tag writes (can be nil)
//   - opts: Tuning options (use nil for DefaultOptions)
func NewFirstFit(h Heap, dt DirtyTracker, opts *Options) (*FirstFitAllocator, error) {
	if opts == nil {
		opts = &DefaultOptions
	}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = format.ChunkSize
	}

	fa := &FirstFitAllocator{
		h:     h,
		dt:    dt,
		chunk: max(format.Align8(chunk), format.MinBlockSize),
	}
	if opts.Checked {
		fa.live = make(map[Ptr]struct{})
		fa.freed = make(map[Ptr]struct{})
	}

	if err := fa.initHeap(); err != nil {
		return nil, err
	}
	return fa, nil
}

// initHeap creates the initial empty heap:
//
//	+-----+-----+-----+-----+
//	| pad | hdr | ftr | hdr |
//	+-----+-----+-----+-----+
//	      | prologue  | epilogue
//
// and then extends it by one chunk.
func (fa *FirstFitAllocator) initHeap() error {
	base, err := fa.h.Sbrk(format.InitialHeapSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}
	if base%format.DoubleWordSize != 0 {
		return fmt.Errorf("%w: break %d is not double-word aligned", ErrInitFailed, base)
	}

	data := fa.h.Bytes()
	fa.putWord(data, base+format.PadOffset, 0)
	fa.putWord(data, base+format.WordSize, format.Pack(format.DoubleWordSize, true))
	fa.putWord(data, base+2*format.WordSize, format.Pack(format.DoubleWordSize, true))
	fa.putWord(data, base+3*format.WordSize, format.Pack(0, true))

	fa.base = base
	fa.heapStart = base + format.PrologueOffset

	if _, err := fa.extendHeap(fa.chunk / format.WordSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	logger.Debug("heap initialized", "base", base, "chunk", fa.chunk)
	return nil
}

// Alloc returns the payload of a block with at least n usable bytes.
// n == 0 returns Nil and no error.
func (fa *FirstFitAllocator) Alloc(n int) (Ptr, error) {
	fa.stats.AllocCalls++

	if n < 0 {
		return Nil, ErrBadSize
	}
	if n == 0 {
		return Nil, nil
	}
	if n > maxRequest {
		fa.stats.FailedAllocs++
		return Nil, fmt.Errorf("%w: request of %d bytes", ErrNoSpace, n)
	}

	asize := format.AdjustedSize(n)

	if b, ok := fa.findFit(asize); ok {
		fa.place(b, asize)
		fa.track(Ptr(b.BP))
		return Ptr(b.BP), nil
	}

	// No fit: grow and use the new block directly.
	b, err := fa.extendHeap(max(asize, fa.chunk) / format.WordSize)
	if err != nil {
		fa.stats.FailedAllocs++
		logger.Debug("allocation failed", "need", n, "aligned", asize, "error", err)
		return Nil, fmt.Errorf("%w: request of %d bytes: %w", ErrNoSpace, n, err)
	}
	fa.place(b, asize)
	fa.track(Ptr(b.BP))
	return Ptr(b.BP), nil
}

// Free marks the block free and merges it with any free neighbor.
//
// p must be a live payload from this allocator. Freeing anything else, or
// freeing twice, corrupts the heap unless the allocator runs in checked
// mode. Free(Nil) does nothing.
func (fa *FirstFitAllocator) Free(p Ptr) error {
	fa.stats.FreeCalls++

	if p.IsNil() {
		return nil
	}
	if err := fa.release(p); err != nil {
		return err
	}

	b := heap.At(fa.h.Bytes(), int(p))
	fa.setTags(b, b.Size(), false)
	fa.coalesce(b)
	return nil
}

// Realloc resizes the payload at p to at least n bytes.
//
// A block with enough slack is shrunk in place and p is returned. Otherwise
// a new block is allocated, min(n, old capacity) bytes are copied and the
// old block is freed. Growth into a free successor is not attempted.
//
// If the new block cannot be allocated, p is returned unchanged together
// with the error, and the old payload is untouched.
//
// Realloc(Nil, n) behaves like Alloc(n); Realloc(p, 0) frees p and returns Nil.
func (fa *FirstFitAllocator) Realloc(p Ptr, n int) (Ptr, error) {
	fa.stats.ReallocCalls++

	if p.IsNil() {
		return fa.Alloc(n)
	}
	if n < 0 {
		return p, ErrBadSize
	}
	if n == 0 {
		if err := fa.Free(p); err != nil {
			return p, err
		}
		return Nil, nil
	}
	if err := fa.check(p); err != nil {
		return p, err
	}
	if n > maxRequest {
		fa.stats.FailedAllocs++
		return p, fmt.Errorf("%w: request of %d bytes", ErrNoSpace, n)
	}

	data := fa.h.Bytes()
	b := heap.At(data, int(p))
	oldSize := b.Size()
	asize := format.AdjustedSize(n)

	if oldSize >= asize+format.MinBlockSize {
		fa.setTags(b, asize, true)
		rest := heap.At(data, b.BP+asize)
		fa.setTags(rest, oldSize-asize, false)
		fa.coalesce(rest)
		fa.stats.InPlaceShrinks++
		return p, nil
	}

	np, err := fa.Alloc(n)
	if err != nil {
		return p, err
	}

	// The heap may have grown; re-slice before copying.
	data = fa.h.Bytes()
	ncopy := min(n, oldSize-format.TagOverhead)
	copy(data[np:int(np)+ncopy], data[p:int(p)+ncopy])

	if err := fa.Free(p); err != nil {
		return np, err
	}
	fa.stats.ReallocCopies++
	return np, nil
}

// Payload returns the caller-visible bytes of the block at p.
func (fa *FirstFitAllocator) Payload(p Ptr) []byte {
	if p.IsNil() {
		return nil
	}
	return heap.At(fa.h.Bytes(), int(p)).Payload()
}

// UsableSize returns how many payload bytes the block at p can hold.
func (fa *FirstFitAllocator) UsableSize(p Ptr) int {
	if p.IsNil() {
		return 0
	}
	return heap.At(fa.h.Bytes(), int(p)).Size() - format.TagOverhead
}

// HeapStart returns the prologue payload address, where list walks begin.
func (fa *FirstFitAllocator) HeapStart() Ptr {
	return Ptr(fa.heapStart)
}

// Image returns the heap from its alignment pad to the current break. Its
// layout matches what heap/verify and heap.Blocks expect.
func (fa *FirstFitAllocator) Image() []byte {
	return fa.h.Bytes()[fa.base:]
}

// Blocks returns a fresh iterator over the real blocks of the heap.
func (fa *FirstFitAllocator) Blocks() *heap.BlockIterator {
	return heap.BlocksFrom(fa.h.Bytes(), fa.heapStart+format.DoubleWordSize)
}

// Stats returns a copy of the allocator counters.
func (fa *FirstFitAllocator) Stats() Stats {
	return fa.stats
}

// extendHeap grows the heap by words (rounded up to an even count) and
// returns the resulting free block after coalescing with its predecessor.
//
// The old epilogue header becomes the header of the new block and a new
// epilogue is written at the new end.
func (fa *FirstFitAllocator) extendHeap(words int) (heap.Block, error) {
	size := format.EvenWords(words)

	bp, err := fa.h.Sbrk(size)
	if err != nil {
		return heap.Block{}, err
	}
	fa.stats.GrowCalls++
	fa.stats.GrowBytes += int64(size)

	data := fa.h.Bytes()
	b := heap.At(data, bp)
	fa.setTags(b, size, false)
	fa.setHeader(b.Next(), 0, true)

	logger.Debug("heap extended", "bytes", size, "brk", len(data))
	return fa.coalesce(b), nil
}

// coalesce merges the free block b with whichever neighbors are free and
// returns the merged block, which starts at b or at its predecessor.
func (fa *FirstFitAllocator) coalesce(b heap.Block) heap.Block {
	prevAlloc := b.PrevAllocated()
	next := b.Next()
	nextAlloc := next.IsAllocated()
	size := b.Size()

	switch {
	case prevAlloc && nextAlloc:
		return b

	case prevAlloc && !nextAlloc:
		size += next.Size()
		fa.setTags(b, size, false)
		fa.stats.CoalesceForward++
		return b

	case !prevAlloc && nextAlloc:
		prev := b.Prev()
		size += prev.Size()
		fa.setTags(prev, size, false)
		fa.stats.CoalesceBackward++
		return prev

	default:
		prev := b.Prev()
		size += prev.Size() + next.Size()
		fa.setTags(prev, size, false)
		fa.stats.CoalesceForward++
		fa.stats.CoalesceBackward++
		return prev
	}
}

// findFit returns the first free block whose size is strictly greater than
// asize. A block of exactly asize is passed over.
func (fa *FirstFitAllocator) findFit(asize int) (heap.Block, bool) {
	it := fa.Blocks()
	for {
		b, err := it.Next()
		if err == io.EOF {
			return heap.Block{}, false
		}
		if err != nil {
			logger.Error("block list walk failed", "error", err)
			return heap.Block{}, false
		}
		if !b.IsAllocated() && b.Size() > asize {
			return b, true
		}
	}
}

// place marks asize bytes of the free block b allocated. The remainder is
// split off as a free block only if it can stand as a block on its own.
func (fa *FirstFitAllocator) place(b heap.Block, asize int) {
	csize := b.Size()

	if csize-asize >= format.MinBlockSize {
		fa.setTags(b, asize, true)
		fa.setTags(heap.At(b.Buf, b.BP+asize), csize-asize, false)
		fa.stats.SplitCount++
		return
	}

	fa.setTags(b, csize, true)
}

func (fa *FirstFitAllocator) setTags(b heap.Block, size int, allocated bool) {
	b.SetTags(size, allocated)
	if fa.dt != nil {
		fa.dt.Add(b.Header(), format.WordSize)
		fa.dt.Add(format.FooterOffset(b.BP, size), format.WordSize)
	}
}

func (fa *FirstFitAllocator) setHeader(b heap.Block, size int, allocated bool) {
	b.SetHeader(size, allocated)
	if fa.dt != nil {
		fa.dt.Add(b.Header(), format.WordSize)
	}
}

func (fa *FirstFitAllocator) putWord(data []byte, off int, v uint32) {
	format.PutU32(data, off, v)
	if fa.dt != nil {
		fa.dt.Add(off, format.WordSize)
	}
}
