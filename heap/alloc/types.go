package alloc

import (
	"github.com/joshuapare/heapkit/heap/dirty"
	"github.com/joshuapare/heapkit/internal/format"
)

// Ptr is a payload address: the offset of a block's payload from the start
// of the heap region.
type Ptr uint32

// Nil is the "no allocation" pointer. Offset 0 holds the alignment pad and is
// never a payload.
const Nil Ptr = 0

// IsNil reports whether p is the "no allocation" pointer.
func (p Ptr) IsNil() bool { return p == Nil }

// DirtyTracker is a type alias for the canonical interface defined in heap/dirty.
type DirtyTracker = dirty.DirtyTracker

// Heap is the heap provider as the allocator sees it: a region that grows
// through sbrk and exposes its in-use prefix. *memlib.Provider satisfies it.
type Heap interface {
	// Sbrk extends the in-use prefix by incr bytes and returns the previous end.
	Sbrk(incr int) (int, error)
	// Bytes returns the in-use prefix of the region.
	Bytes() []byte
}

// Allocator defines the malloc/free/realloc contract.
//
// Implementations:
//   - FirstFitAllocator: implicit list, boundary tags, first fit, immediate coalescing
type Allocator interface {
	// Alloc returns a payload of at least n bytes. A zero-byte request
	// returns Nil and no error.
	Alloc(n int) (Ptr, error)

	// Free releases a payload returned by Alloc or Realloc.
	Free(p Ptr) error

	// Realloc resizes a payload. When it cannot, it returns p unchanged
	// together with the error; the original block stays valid.
	Realloc(p Ptr, n int) (Ptr, error)

	// Payload returns the caller-visible bytes of a live payload.
	Payload(p Ptr) []byte
}

// Options tunes a FirstFitAllocator. A nil *Options selects the defaults.
type Options struct {
	// ChunkSize is the minimum heap extension in bytes. It is rounded up to
	// a multiple of 8 and to at least format.MinBlockSize.
	// Default: format.ChunkSize.
	ChunkSize int

	// Checked enables the opt-in misuse checks: Free and Realloc reject
	// pointers that are not live instead of corrupting the heap. The heap
	// layout is the same either way.
	Checked bool
}

// DefaultOptions is used when NewFirstFit is given nil options.
var DefaultOptions = Options{ChunkSize: format.ChunkSize}

// maxRequest caps a single request so that block sizes always fit a tag.
const maxRequest = 1 << 30
