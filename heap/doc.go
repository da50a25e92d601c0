// Package heap provides typed views over a boundary-tag heap image.
//
// # Overview
//
// A heap image is one contiguous byte buffer laid out as
//
//	[pad][prologue hdr|ftr][block]...[block][epilogue hdr]
//
// Every block carries a one-word header and a one-word footer holding the
// same (size, allocated) tag, so a block can reach both of its neighbors
// without any side index. The prologue (size 8, allocated) and the epilogue
// (size 0, allocated) are sentinels that let neighbor lookups run without
// bounds special cases.
//
// # Key Types
//
//   - Block: a handle on one block, addressed by its payload offset
//   - BlockIterator: a restartable walk over the implicit block list that
//     stops at the epilogue
//
// Blocks are offsets, not pointers. Building with the heapdebug tag adds an
// explicit range check to every tag access; the layout is identical either
// way.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/alloc: the allocator built on these views
//   - github.com/joshuapare/heapkit/heap/verify: invariant checks over an image
//   - github.com/joshuapare/heapkit/internal/format: tag encoding and constants
package heap
