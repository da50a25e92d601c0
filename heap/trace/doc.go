// Package trace parses and replays allocation traces.
//
// A trace is plain text. Optional leading lines holding a single integer
// form the header: suggested heap size, number of ids, number of ops and a
// weight, in that order. Lines starting with # are comments. Every other
// line is one operation:
//
//	a <id> <size>   allocate size bytes and call the block id
//	r <id> <size>   reallocate block id to size bytes
//	f <id>          free block id
//
// Input may be UTF-8 or UTF-16 with a byte order mark.
//
// Run replays a trace against an allocator and checks what a caller can
// observe: payload alignment, payloads inside the heap, no overlap between
// live payloads, and that payload bytes survive until they are freed or
// reallocated. With RunOptions.Verify set it also checks the heap image
// after every operation.
package trace
