package dirty

// DirtyTracker is the minimal interface for tracking dirty (modified) byte ranges.
// The allocator reports every tag word it writes through it.
//
// This interface is intended for components that only need to notify about dirty regions
// but don't manage flushing themselves.
type DirtyTracker interface {
	// Add marks a byte range as dirty.
	// off is the offset from the start of the heap, length is the number of bytes.
	Add(off, length int)
}

// Region is the heap region a Tracker flushes. *memlib.Provider satisfies it.
type Region interface {
	// Mapped returns the whole backing region.
	Mapped() []byte
	// FileBacked reports whether flushing reaches a file at all.
	FileBacked() bool
}
