package dirty

import (
	"context"
	"sort"
)

const (
	// defaultRangeCapacity is the pre-allocated capacity for dirty ranges.
	defaultRangeCapacity = 64

	// standardPageSize is the typical OS page size (4KB).
	standardPageSize = 4096
)

// Range represents a dirty byte range (offsets from the heap start).
type Range struct {
	Off int64 // Offset in heap
	Len int64 // Length in bytes
}

// End returns the exclusive end offset of the range.
func (r Range) End() int64 { return r.Off + r.Len }

// Tracker accumulates dirty ranges and flushes them efficiently.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	r        Region
	ranges   []Range // Raw ranges; coalesced at flush time
	pageSize int64
}

// NewTracker creates a dirty tracker for the given region. r may be nil when
// the tracker is only used to observe writes.
func NewTracker(r Region) *Tracker {
	return &Tracker{
		r:        r,
		ranges:   make([]Range, 0, defaultRangeCapacity),
		pageSize: standardPageSize,
	}
}

// Add records a dirty range. It only appends; alignment and merging happen
// when the ranges are read.
func (t *Tracker) Add(off, length int) {
	t.ranges = append(t.ranges, Range{
		Off: int64(off),
		Len: int64(length),
	})
}

// Len returns the number of raw ranges recorded since the last flush or reset.
func (t *Tracker) Len() int { return len(t.ranges) }

// Raw returns a copy of the uncoalesced ranges.
func (t *Tracker) Raw() []Range {
	result := make([]Range, len(t.ranges))
	copy(result, t.ranges)
	return result
}

// Ranges returns the page-aligned, sorted and merged dirty ranges.
func (t *Tracker) Ranges() []Range {
	return t.coalesce()
}

// Flush msyncs the dirty pages of a file-backed region and clears the
// tracked ranges. Anonymous regions just have their ranges cleared.
//
// The context is checked before each range; a cancelled flush may have
// written some ranges and not others.
func (t *Tracker) Flush(ctx context.Context) error {
	if len(t.ranges) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.r != nil && t.r.FileBacked() {
		data := t.r.Mapped()
		if len(data) > 0 {
			if err := t.flushRanges(ctx, data); err != nil {
				return err
			}
		}
	}

	t.ranges = t.ranges[:0]
	return nil
}

// Reset clears all tracked ranges.
func (t *Tracker) Reset() {
	t.ranges = t.ranges[:0]
}

// coalesce page-aligns all ranges, sorts them, and merges overlapping/adjacent ranges.
func (t *Tracker) coalesce() []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / t.pageSize) * t.pageSize

		end := r.Off + r.Len
		if end%t.pageSize != 0 {
			end = ((end / t.pageSize) + 1) * t.pageSize
		}

		aligned[i] = Range{
			Off: start,
			Len: end - start,
		}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]

	for i := 1; i < len(aligned); i++ {
		next := aligned[i]
		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
		} else {
			merged = append(merged, current)
			current = next
		}
	}

	return append(merged, current)
}
