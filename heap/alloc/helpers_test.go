package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/memlib"
	"github.com/joshuapare/heapkit/heap/verify"
)

// ============================================================================
// Heap Creation Utilities
// ============================================================================

// newTestHeap reserves an anonymous provider of the given capacity (0 for
// the default) and tears it down when the test ends.
func newTestHeap(t testing.TB, capacity int) *memlib.Provider {
	t.Helper()

	p, err := memlib.New(memlib.Options{Capacity: capacity})
	require.NoError(t, err, "failed to reserve test heap")
	t.Cleanup(func() { _ = p.Teardown() })
	return p
}

// newAllocatorForTest builds an allocator over a fresh default-size heap.
func newAllocatorForTest(t testing.TB, opts *Options) (*FirstFitAllocator, *memlib.Provider) {
	t.Helper()

	p := newTestHeap(t, 0)
	fa, err := NewFirstFit(p, nil, opts)
	require.NoError(t, err, "NewFirstFit should succeed")
	return fa, p
}

// sliceHeap is a Heap over a plain byte slice. Its break may start past
// zero to exercise allocators laid down at a non-zero base.
type sliceHeap struct {
	data []byte
	brk  int
}

func (s *sliceHeap) Sbrk(incr int) (int, error) {
	if incr < 0 || s.brk+incr > len(s.data) {
		return 0, memlib.ErrNoMemory
	}
	old := s.brk
	s.brk += incr
	return old, nil
}

func (s *sliceHeap) Bytes() []byte { return s.data[:s.brk] }

// ============================================================================
// Dirty Tracking
// ============================================================================

type dirtyRange struct {
	off, length int
}

// spyDirtyTracker records every range the allocator reports.
type spyDirtyTracker struct {
	ranges []dirtyRange
}

func (s *spyDirtyTracker) Add(off, length int) {
	s.ranges = append(s.ranges, dirtyRange{off, length})
}

func (s *spyDirtyTracker) covers(off int) bool {
	for _, r := range s.ranges {
		if off >= r.off && off < r.off+r.length {
			return true
		}
	}
	return false
}

// ============================================================================
// Assertions
// ============================================================================

// assertInvariants fails the test if the heap image breaks any structural
// invariant.
func assertInvariants(t testing.TB, fa *FirstFitAllocator) {
	t.Helper()
	require.NoError(t, verify.AllInvariants(fa.Image()), "heap invariants violated")
}

// blockOf returns the block handle for p.
func blockOf(fa *FirstFitAllocator, p Ptr) heap.Block {
	return heap.At(fa.h.Bytes(), int(p))
}

// scanBlocks returns every real block of the heap.
func scanBlocks(t testing.TB, fa *FirstFitAllocator) []heap.BlockInfo {
	t.Helper()
	blocks, err := heap.Scan(fa.Image())
	require.NoError(t, err)
	return blocks
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
