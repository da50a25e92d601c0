// Package alloc provides malloc, free and realloc over a growable heap region.
//
// # Overview
//
// FirstFitAllocator manages a heap as an implicit list of blocks. Each block
// starts with a header tag and ends with a footer tag; both hold the block
// size and an allocated flag (see internal/format). The list is walked by
// adding sizes, and a block's predecessor is found through the footer just
// before its header.
//
// # Heap Layout
//
//	+-----+----------+----------+-------------------------+----------+
//	| pad | prologue | prologue |  blocks ...             | epilogue |
//	|  0  |  8 | 1   |  8 | 1   |                         |  0 | 1   |
//	+-----+----------+----------+-------------------------+----------+
//	      ^ hdr      ^ heap start                         ^ brk - 4
//
// The allocated prologue and epilogue mean coalescing never needs a bounds
// check at either end.
//
// # Allocation
//
//   - Requests of up to 8 bytes use a 16-byte block; larger requests add the
//     8 bytes of tags and round up to a multiple of 8
//   - The first free block strictly larger than the adjusted size is used
//   - A remainder of 16 bytes or more is split off as a new free block
//   - When nothing fits, the heap grows by max(adjusted size, chunk size)
//
// # Usage Example
//
//	p, err := memlib.New(memlib.Options{})
//	if err != nil {
//	    return err
//	}
//	defer p.Teardown()
//
//	fa, err := alloc.NewFirstFit(p, nil, nil)
//	if err != nil {
//	    return err
//	}
//
//	ptr, err := fa.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(fa.Payload(ptr), data)
//	_ = fa.Free(ptr)
//
// # Checked Mode
//
// With Options.Checked set, Free and Realloc return ErrBadPtr or
// ErrDoubleFree instead of corrupting the heap. Without it they trust the
// caller completely, like their C counterparts.
//
// # Thread Safety
//
// An allocator is not safe for concurrent use.
package alloc
