// Package dirty tracks which parts of a heap image have been written and
// flushes them when the heap is backed by a file.
//
// # Overview
//
// The allocator writes only tag words: headers, footers and the epilogue.
// Every such write is reported through DirtyTracker.Add. A Tracker records
// the raw ranges cheaply and, on demand, page-aligns, sorts and merges them:
//
//	Dirty writes at: 0x0c, 0x1ff8, 0x5004 → Ranges: [0x0-0x2000, 0x5000-0x6000]
//
// Flush then msyncs just those pages of a file-backed region, so a heap
// image on disk can be kept current without rewriting the whole file.
//
// # Thread Safety
//
// Tracker instances are not thread-safe, matching the allocator they serve.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/alloc: reports tag writes
//   - github.com/joshuapare/heapkit/heap/memlib: provides the file-backed region
package dirty
