package alloc

// Stats holds allocator counters for tests, benchmarks and the CLI.
type Stats struct {
	AllocCalls       int   // Alloc() calls, including those made by Realloc
	FreeCalls        int   // Free() calls, including those made by Realloc
	ReallocCalls     int   // Realloc() calls
	FailedAllocs     int   // Alloc() calls that ran out of memory
	GrowCalls        int   // Successful heap extensions, including the first one
	GrowBytes        int64 // Bytes added by heap extensions
	SplitCount       int   // Blocks split by place()
	CoalesceForward  int   // Merges with a free successor
	CoalesceBackward int   // Merges with a free predecessor
	InPlaceShrinks   int   // Realloc calls satisfied without moving
	ReallocCopies    int   // Realloc calls that moved the payload
}
