package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free block fits and the heap could not be extended.
	ErrNoSpace = errors.New("alloc: out of memory")

	// ErrInitFailed indicates the heap skeleton or the first extension could not be created.
	ErrInitFailed = errors.New("alloc: heap initialization failed")

	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("alloc: negative size")

	// ErrBadPtr indicates a pointer this allocator never handed out (checked mode only).
	ErrBadPtr = errors.New("alloc: pointer not owned by allocator")

	// ErrDoubleFree indicates a pointer that was already freed (checked mode only).
	ErrDoubleFree = errors.New("alloc: pointer already freed")
)
