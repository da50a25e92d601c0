// Package memlib is the heap provider: it owns one fixed-capacity region and
// hands out its prefix through an sbrk-style break pointer. The allocator
// never touches raw memory except through a Provider.
package memlib

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// ErrNoMemory indicates the break cannot move by the requested increment.
	ErrNoMemory = errors.New("memlib: out of memory")

	// ErrTornDown indicates the region was already released.
	ErrTornDown = errors.New("memlib: region torn down")

	// ErrBadCapacity indicates a non-positive or oversized capacity.
	ErrBadCapacity = errors.New("memlib: invalid capacity")
)

// Options configures a Provider. The zero value reserves an anonymous
// region of format.MaxHeap bytes.
type Options struct {
	// Capacity is the fixed size of the region in bytes.
	Capacity int

	// Path, when set, backs the region with a shared mapping of this file so
	// the heap image survives the process.
	Path string
}

// Provider owns the backing region and its break pointer.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Provider struct {
	data []byte // whole region; len == capacity
	brk  int    // end of the in-use prefix
	reg  region
	torn bool
}

// New reserves the backing region.
func New(opts Options) (*Provider, error) {
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = format.MaxHeap
	}
	if capacity < format.InitialHeapSize || capacity > int(^uint32(0)>>1) {
		return nil, fmt.Errorf("%w: %d", ErrBadCapacity, capacity)
	}

	reg, err := reserve(capacity, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("memlib: reserve %d bytes: %w", capacity, err)
	}

	logger.Debug("heap region reserved", "capacity", capacity, "path", opts.Path)
	return &Provider{data: reg.bytes(), reg: reg}, nil
}

// Sbrk moves the break forward by incr bytes and returns the previous break.
// Negative increments and increments that would reach the end of the region
// fail with ErrNoMemory; the last byte of the region is never handed out.
func (p *Provider) Sbrk(incr int) (int, error) {
	if p.torn {
		return 0, ErrTornDown
	}
	old := p.brk
	if incr < 0 || incr >= len(p.data)-p.brk {
		logger.Debug("sbrk failed", "incr", incr, "brk", p.brk, "capacity", len(p.data))
		return 0, fmt.Errorf("%w: sbrk(%d) at brk %d of %d", ErrNoMemory, incr, p.brk, len(p.data))
	}
	p.brk += incr
	return old, nil
}

// Reset rewinds the break to the start of the region. Existing contents are
// left in place and will be overwritten by the next user.
func (p *Provider) Reset() {
	p.brk = 0
}

// Teardown releases the region. It is irreversible; later Sbrk calls fail
// with ErrTornDown. Calling it twice is a no-op.
func (p *Provider) Teardown() error {
	if p.torn {
		return nil
	}
	p.torn = true
	err := p.reg.release(p.brk)
	p.data = nil
	p.brk = 0
	return err
}

// Sync flushes the in-use prefix of a file-backed region to disk. It is a
// no-op for anonymous regions.
func (p *Provider) Sync() error {
	if p.torn {
		return ErrTornDown
	}
	return p.reg.sync(p.brk)
}

// Bytes returns the in-use prefix [0, brk) of the region.
func (p *Provider) Bytes() []byte { return p.data[:p.brk] }

// Mapped returns the whole region regardless of the break.
func (p *Provider) Mapped() []byte { return p.data }

// Brk returns the current break offset.
func (p *Provider) Brk() int { return p.brk }

// Cap returns the fixed capacity of the region.
func (p *Provider) Cap() int { return len(p.data) }

// FileBacked reports whether the region maps a file.
func (p *Provider) FileBacked() bool { return p.reg.fileBacked() }

// region is the platform-specific backing store.
type region interface {
	bytes() []byte
	sync(brk int) error
	release(brk int) error
	fileBacked() bool
}
