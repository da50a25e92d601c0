package trace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// ErrCheckFailed indicates the allocator returned something a correct
// allocator never would: a misaligned, out-of-heap, overlapping or
// corrupted payload.
var ErrCheckFailed = errors.New("trace: check failed")

// RunOptions controls a replay.
type RunOptions struct {
	// Verify runs verify.AllInvariants on the heap image after every op.
	Verify bool
}

// Result summarizes a replay.
type Result struct {
	Allocs   int
	Reallocs int
	Frees    int

	PeakLive int // Largest sum of requested sizes live at one time
	HeapSize int // Heap break after the last op

	Elapsed time.Duration
}

// Ops returns the number of operations replayed.
func (r *Result) Ops() int {
	return r.Allocs + r.Reallocs + r.Frees
}

// Utilization returns peak live bytes over final heap size.
func (r *Result) Utilization() float64 {
	if r.HeapSize == 0 {
		return 0
	}
	return float64(r.PeakLive) / float64(r.HeapSize)
}

// imager is implemented by allocators that know where their heap image
// starts within the region.
type imager interface {
	Image() []byte
}

type liveBlock struct {
	p    alloc.Ptr
	size int
}

type replay struct {
	a    alloc.Allocator
	h    alloc.Heap
	opts RunOptions

	live     map[int]liveBlock
	liveSize int
	res      Result
}

// Run replays tr against a, which must be the only user of h. It stops at
// the first failed op, failed check or context cancellation and returns the
// partial result together with the error.
func Run(ctx context.Context, a alloc.Allocator, h alloc.Heap, tr *Trace, opts RunOptions) (*Result, error) {
	rp := &replay{
		a:    a,
		h:    h,
		opts: opts,
		live: make(map[int]liveBlock),
	}

	start := time.Now()
	err := rp.run(ctx, tr)
	rp.res.Elapsed = time.Since(start)
	rp.res.HeapSize = len(h.Bytes())

	if err != nil {
		logger.Debug("trace replay stopped", "ops", rp.res.Ops(), "error", err)
		return &rp.res, err
	}

	logger.Debug("trace replayed",
		"ops", rp.res.Ops(),
		"peak_live", rp.res.PeakLive,
		"heap_size", rp.res.HeapSize,
		"elapsed", rp.res.Elapsed)
	return &rp.res, nil
}

func (rp *replay) run(ctx context.Context, tr *Trace) error {
	for _, op := range tr.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch op.Kind {
		case OpAlloc:
			err = rp.alloc(op)
		case OpRealloc:
			err = rp.realloc(op)
		case OpFree:
			err = rp.free(op)
		default:
			err = fmt.Errorf("%w: unknown op %s", ErrSyntax, op.Kind)
		}
		if err != nil {
			return fmt.Errorf("line %d (%s %d): %w", op.Line, op.Kind, op.ID, err)
		}

		if rp.opts.Verify {
			if err := verify.AllInvariants(rp.image()); err != nil {
				return fmt.Errorf("line %d (%s %d): %w", op.Line, op.Kind, op.ID, err)
			}
		}
	}
	return nil
}

func (rp *replay) alloc(op Op) error {
	if _, ok := rp.live[op.ID]; ok {
		return fmt.Errorf("%w: id %d is already live", ErrCheckFailed, op.ID)
	}

	p, err := rp.a.Alloc(op.Size)
	rp.res.Allocs++
	if err != nil {
		return err
	}
	if op.Size == 0 {
		if !p.IsNil() {
			return fmt.Errorf("%w: zero-byte request returned %d", ErrCheckFailed, p)
		}
		return nil
	}

	if err := rp.checkPlacement(op.ID, p, op.Size); err != nil {
		return err
	}
	rp.fill(op.ID, p, 0, op.Size)
	rp.add(op.ID, liveBlock{p: p, size: op.Size})
	return nil
}

func (rp *replay) realloc(op Op) error {
	old, ok := rp.live[op.ID]
	if !ok {
		old = liveBlock{p: alloc.Nil}
	}
	if err := rp.checkData(op.ID, old); err != nil {
		return err
	}

	p, err := rp.a.Realloc(old.p, op.Size)
	rp.res.Reallocs++
	if err != nil {
		if p != old.p {
			return fmt.Errorf("%w: failed realloc returned %d, not the original %d", ErrCheckFailed, p, old.p)
		}
		if cerr := rp.checkData(op.ID, old); cerr != nil {
			return cerr
		}
		return err
	}

	rp.remove(op.ID)
	if op.Size == 0 {
		return nil
	}

	if err := rp.checkPlacement(op.ID, p, op.Size); err != nil {
		return err
	}
	kept := liveBlock{p: p, size: min(old.size, op.Size)}
	if err := rp.checkData(op.ID, kept); err != nil {
		return err
	}
	rp.fill(op.ID, p, kept.size, op.Size)
	rp.add(op.ID, liveBlock{p: p, size: op.Size})
	return nil
}

func (rp *replay) free(op Op) error {
	lb, ok := rp.live[op.ID]
	if !ok {
		// Freeing an id that was never allocated, or whose alloc was a
		// zero-byte request, frees Nil.
		lb = liveBlock{p: alloc.Nil}
	}
	if err := rp.checkData(op.ID, lb); err != nil {
		return err
	}

	rp.res.Frees++
	if err := rp.a.Free(lb.p); err != nil {
		return err
	}
	rp.remove(op.ID)
	return nil
}

// checkPlacement checks that [p, p+size) is aligned, inside the heap and
// disjoint from every other live payload.
func (rp *replay) checkPlacement(id int, p alloc.Ptr, size int) error {
	if p.IsNil() {
		return fmt.Errorf("%w: %d-byte request returned Nil without an error", ErrCheckFailed, size)
	}
	if int(p)%format.DoubleWordSize != 0 {
		return fmt.Errorf("%w: payload %d is not %d-byte aligned", ErrCheckFailed, p, format.DoubleWordSize)
	}
	if end := int(p) + size; end > len(rp.h.Bytes()) {
		return fmt.Errorf("%w: payload [%d, %d) extends past heap break %d", ErrCheckFailed, p, end, len(rp.h.Bytes()))
	}
	if got := len(rp.a.Payload(p)); got < size {
		return fmt.Errorf("%w: payload %d holds %d bytes, need %d", ErrCheckFailed, p, got, size)
	}

	lo, hi := int(p), int(p)+size
	for other, lb := range rp.live {
		if other == id {
			continue
		}
		olo, ohi := int(lb.p), int(lb.p)+lb.size
		if lo < ohi && olo < hi {
			return fmt.Errorf("%w: payload [%d, %d) overlaps id %d at [%d, %d)", ErrCheckFailed, lo, hi, other, olo, ohi)
		}
	}
	return nil
}

// checkData checks the first lb.size bytes of lb.p still hold id's pattern.
func (rp *replay) checkData(id int, lb liveBlock) error {
	if lb.p.IsNil() {
		return nil
	}
	payload := rp.a.Payload(lb.p)
	for i := range lb.size {
		if payload[i] != pattern(id, i) {
			return fmt.Errorf("%w: id %d payload %d byte %d changed", ErrCheckFailed, id, lb.p, i)
		}
	}
	return nil
}

func (rp *replay) fill(id int, p alloc.Ptr, from, to int) {
	payload := rp.a.Payload(p)
	for i := from; i < to; i++ {
		payload[i] = pattern(id, i)
	}
}

func (rp *replay) add(id int, lb liveBlock) {
	rp.live[id] = lb
	rp.liveSize += lb.size
	rp.res.PeakLive = max(rp.res.PeakLive, rp.liveSize)
}

func (rp *replay) remove(id int) {
	if lb, ok := rp.live[id]; ok {
		rp.liveSize -= lb.size
		delete(rp.live, id)
	}
}

func (rp *replay) image() []byte {
	if im, ok := rp.a.(imager); ok {
		return im.Image()
	}
	return rp.h.Bytes()
}

// pattern is the byte id writes at offset i of its payload.
func pattern(id, i int) byte {
	return byte(id*31 + i)
}
