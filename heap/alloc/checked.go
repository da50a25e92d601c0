package alloc

import "fmt"

// Checked mode keeps a side table of payload pointers so that Free and
// Realloc can refuse pointers that are not live. The heap image is not
// touched, so a checked heap verifies and dumps exactly like an unchecked one.
//
// A pointer stays in freed until a later allocation hands the same address
// out again. Addresses swallowed by coalescing therefore keep reporting
// ErrDoubleFree rather than ErrBadPtr.

func (fa *FirstFitAllocator) checked() bool {
	return fa.live != nil
}

// track records p as live after a successful allocation.
func (fa *FirstFitAllocator) track(p Ptr) {
	if !fa.checked() {
		return
	}
	delete(fa.freed, p)
	fa.live[p] = struct{}{}
}

// check rejects p unless it is live.
func (fa *FirstFitAllocator) check(p Ptr) error {
	if !fa.checked() {
		return nil
	}
	if _, ok := fa.live[p]; ok {
		return nil
	}
	if _, ok := fa.freed[p]; ok {
		return fmt.Errorf("%w: %d", ErrDoubleFree, p)
	}
	return fmt.Errorf("%w: %d", ErrBadPtr, p)
}

// release moves p from live to freed.
func (fa *FirstFitAllocator) release(p Ptr) error {
	if err := fa.check(p); err != nil {
		return err
	}
	if fa.checked() {
		delete(fa.live, p)
		fa.freed[p] = struct{}{}
	}
	return nil
}

// Live returns the number of outstanding allocations. It is only tracked in
// checked mode and returns -1 otherwise.
func (fa *FirstFitAllocator) Live() int {
	if !fa.checked() {
		return -1
	}
	return len(fa.live)
}
